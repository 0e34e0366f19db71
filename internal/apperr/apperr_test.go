package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", InvalidTransition("cycle %d is %s", 4, "priced"))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition match")
	}
	if errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("unexpected ErrCapacityExceeded match")
	}
	if KindOf(err) != KindInvalidTransition {
		t.Fatalf("KindOf = %q", KindOf(err))
	}
}

func TestStoragePreservesTypedErrors(t *testing.T) {
	inner := CapacityExceeded("full")
	if got := Storage("tx", inner); got != inner {
		t.Fatalf("Storage rewrapped a typed error: %v", got)
	}
	plain := errors.New("connection reset")
	got := Storage("load cycle", plain)
	if !errors.Is(got, ErrStorage) || !errors.Is(got, plain) {
		t.Fatalf("Storage(%v) = %v", plain, got)
	}
	if got.Error() != "load cycle: connection reset" {
		t.Fatalf("message = %q", got.Error())
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		ErrValidation:             http.StatusBadRequest,
		ErrUnauthorized:           http.StatusUnauthorized,
		ErrNotFound:               http.StatusNotFound,
		ErrInvalidTransition:      http.StatusConflict,
		ErrCapacityExceeded:       http.StatusConflict,
		ErrConflictRetryExhausted: http.StatusServiceUnavailable,
		ErrStorage:                http.StatusInternalServerError,
	}
	for e, want := range cases {
		if e.Status() != want {
			t.Errorf("%s: status %d, want %d", e.Kind, e.Status(), want)
		}
	}
	if !ErrConflictRetryExhausted.Transient() || ErrCapacityExceeded.Transient() {
		t.Fatalf("Transient mismatch")
	}
}
