package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type paymentLookup interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

type shippingLookup interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
}

// Methods adapts the method repositories to the step-validation checks.
// Missing or inactive both answer false; only store failures propagate.
type Methods struct {
	payments paymentLookup
	shipping shippingLookup
}

func NewMethods(payments paymentLookup, shipping shippingLookup) (*Methods, error) {
	if payments == nil {
		return nil, fmt.Errorf("payment lookup required")
	}
	if shipping == nil {
		return nil, fmt.Errorf("shipping lookup required")
	}
	return &Methods{payments: payments, shipping: shipping}, nil
}

func (m *Methods) IsActivePaymentMethod(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := m.payments.FindActiveByID(ctx, id); err != nil {
		return false, selectionError(err)
	}
	return true, nil
}

func (m *Methods) IsActiveShippingMethod(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := m.shipping.FindActiveByID(ctx, id); err != nil {
		return false, selectionError(err)
	}
	return true, nil
}

func selectionError(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	switch typed.Code() {
	case pkgerrors.CodeNotFound, pkgerrors.CodeValidation:
		return nil
	}
	return err
}
