package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsUnwrapsThroughWrapping(t *testing.T) {
	t.Parallel()

	root := New(CodeStockInsufficient, "insufficient stock")
	wrapped := fmt.Errorf("placing order: %w", root)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrapping")
	}
	if typed.Code() != CodeStockInsufficient {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestAsUnknownError(t *testing.T) {
	t.Parallel()

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
	if As(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "load cart")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected cause reachable through Unwrap")
	}
	if err.Message() != "load cart" {
		t.Fatalf("unexpected message %q", err.Message())
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeValidation, "checkout step validation failed").
		WithDetails(map[string]string{"phone": "is required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["phone"] != "is required" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}

func TestMetadataStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeStockInsufficient, http.StatusConflict},
		{CodeDiscountInvalid, http.StatusUnprocessableEntity},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeIdempotency, http.StatusConflict},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("%s: expected status %d got %d", tc.code, tc.status, got)
		}
	}

	// Unknown codes degrade to internal.
	if got := MetadataFor(Code("MYSTERY")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", got)
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	if Retryable(New(CodeStockInsufficient, "no stock")) {
		t.Fatal("business failures must not be retryable")
	}
	if !Retryable(New(CodeDependency, "redis down")) {
		t.Fatal("dependency failures are retryable")
	}
	if Retryable(stdErrors.New("plain")) {
		t.Fatal("untyped errors are not retryable")
	}
}
