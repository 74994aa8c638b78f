package checkout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/pkg/types"
)

// Step is one screen of the checkout flow.
type Step string

const (
	StepGuestInfo Step = "guest_info"
	StepAddress   Step = "address"
	StepPayment   Step = "payment"
	StepReview    Step = "review"
)

// ParseStep converts raw input into a Step.
func ParseStep(value string) (Step, error) {
	switch Step(value) {
	case StepGuestInfo, StepAddress, StepPayment, StepReview:
		return Step(value), nil
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}

// CustomerInfo is collected only for guest checkouts.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Draft is the transient checkout form state. It lives in memory for the
// duration of the flow and is never persisted until placement succeeds.
type Draft struct {
	CustomerInfo     CustomerInfo  `json:"customer_info"`
	ShippingAddress  types.Address `json:"shipping_address"`
	PaymentMethodID  uuid.UUID     `json:"payment_method_id"`
	ShippingMethodID uuid.UUID     `json:"shipping_method_id"`
	DeliveryNotes    string        `json:"delivery_notes,omitempty"`
	DiscountID       *uuid.UUID    `json:"discount_id,omitempty"`
}
