package shop

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("shop: not found")
	ErrUnauthorized = errors.New("shop: unauthorized")
	ErrInvalidInput = errors.New("shop: invalid input")
)

// APIError carries the backend's extracted error payload for non-2xx replies.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("shop: api error %d: %s (request_id=%s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("shop: api error %d: %s", e.Status, e.Message)
}

// Is maps well-known statuses onto the package error vars for errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	}
	return false
}
