package enums

import "fmt"

// PaymentStatus tracks the payment lifecycle of an order. Capture itself
// happens outside this system; only the status lands here.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusPartiallyRefunded,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Label returns the storefront display string for the status.
func (p PaymentStatus) Label() string {
	switch p {
	case PaymentStatusPaid:
		return "Đã thanh toán"
	case PaymentStatusFailed:
		return "Thanh toán thất bại"
	default:
		return "Chờ thanh toán"
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// IsRefund reports whether the status records money returned to the buyer.
func (p PaymentStatus) IsRefund() bool {
	return p == PaymentStatusRefunded || p == PaymentStatusPartiallyRefunded
}
