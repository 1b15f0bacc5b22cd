package identity

import (
	"errors"
	"fmt"
)

// Code classifies provider failures. The set is closed: anything the
// provider reports that has no mapping becomes CodeUnknown.
type Code string

const (
	// CodeStaleSession: a previous sign-in was not terminated before a new
	// one was attempted ("there is already a signed in user").
	CodeStaleSession Code = "STALE_SESSION"
	// CodeNotAuthorized: expired or invalid credentials/session.
	CodeNotAuthorized Code = "NOT_AUTHORIZED"
	// CodeUserNotConfirmed: the account exists but was never confirmed.
	CodeUserNotConfirmed Code = "USER_NOT_CONFIRMED"
	// CodeCodeMismatch: wrong confirmation code.
	CodeCodeMismatch Code = "CODE_MISMATCH"
	// CodeUserExists: registration against a taken email.
	CodeUserExists Code = "USER_EXISTS"
	// CodeInvalidCredentials: wrong email/password pair.
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	// CodeUnknown: unclassified provider failure, passed through unchanged.
	CodeUnknown Code = "UNKNOWN"
)

// Error is the tagged error type returned by identity providers.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s: %s", e.Code, e.Message)
}

// NewError builds a tagged provider error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the classification of an error, CodeUnknown otherwise.
func CodeOf(err error) Code {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return CodeUnknown
}

// ErrNoSession is returned by CurrentUser implementations when no provider
// session is active at all. It is not a failure mode, just an empty state.
var ErrNoSession = errors.New("identity: no active session")
