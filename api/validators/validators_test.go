package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type addLineRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

func decode(t *testing.T, body string, dest any) error {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/cart/items", strings.NewReader(body))
	return DecodeJSONBody(req, dest)
}

func TestDecodeJSONBodyHappyPath(t *testing.T) {
	t.Parallel()

	var payload addLineRequest
	err := decode(t, `{"variant_id":"5f1d8b8e-8a43-4c65-9c2e-43a5a79c6d1a","quantity":2}`, &payload)
	if err != nil {
		t.Fatalf("decode valid body: %v", err)
	}
	if payload.Quantity != 2 {
		t.Fatalf("unexpected quantity %d", payload.Quantity)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	var payload addLineRequest
	err := decode(t, `{"variant_id":"5f1d8b8e-8a43-4c65-9c2e-43a5a79c6d1a","quantity":2,"admin":true}`, &payload)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyFieldErrorsKeyedByJSONName(t *testing.T) {
	t.Parallel()

	var payload addLineRequest
	err := decode(t, `{"variant_id":"not-a-uuid"}`, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", typed.Details())
	}
	if details["variant_id"] != "must be a valid uuid" {
		t.Fatalf("unexpected variant_id message %q", details["variant_id"])
	}
	if details["quantity"] != "is required" {
		t.Fatalf("unexpected quantity message %q", details["quantity"])
	}
}

func TestDecodeJSONBodyRangeMessages(t *testing.T) {
	t.Parallel()

	var payload addLineRequest
	err := decode(t, `{"variant_id":"5f1d8b8e-8a43-4c65-9c2e-43a5a79c6d1a","quantity":500}`, &payload)
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := typed.Details().(map[string]string)
	if details["quantity"] != "must be at most 99" {
		t.Fatalf("unexpected quantity message %q", details["quantity"])
	}
}
