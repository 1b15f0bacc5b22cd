package shop

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSellerStatus(t *testing.T) {
	cases := map[string]SellerStatus{
		"NONE":           StatusNone,
		"PENDING_REVIEW": StatusPendingReview,
		"APPROVED":       StatusApproved,
		"REJECTED":       StatusRejected,
		"PENDING":        StatusPendingReview,
		"ACTIVE":         StatusApproved,
		"":               StatusNone,
		"GARBAGE":        StatusNone,
	}
	for in, want := range cases {
		if got := ParseSellerStatus(in); got != want {
			t.Fatalf("ParseSellerStatus(%q): got %q want %q", in, got, want)
		}
	}
}

func TestRoleIsSeller(t *testing.T) {
	if RoleCustomer.IsSeller() {
		t.Fatalf("customer is not a seller")
	}
	if !RoleSeller.IsSeller() || !RoleAdmin.IsSeller() {
		t.Fatalf("seller and admin must pass the merchant gate")
	}
}

func TestAPIErrorIs(t *testing.T) {
	cases := []struct {
		status int
		target error
	}{
		{404, ErrNotFound},
		{401, ErrUnauthorized},
		{400, ErrInvalidInput},
	}
	for _, tc := range cases {
		err := error(&APIError{Status: tc.status, Message: "boom"})
		if !errors.Is(err, tc.target) {
			t.Fatalf("status %d should match %v", tc.status, tc.target)
		}
	}
	if errors.Is(&APIError{Status: 500}, ErrNotFound) {
		t.Fatalf("500 must not match ErrNotFound")
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Status: 400, Message: "cart is empty", RequestID: "rid-1"}
	if msg := err.Error(); !strings.Contains(msg, "cart is empty") || !strings.Contains(msg, "rid-1") {
		t.Fatalf("unexpected message: %q", msg)
	}
}
