package enums

import "fmt"

// DiscountType selects how a discount's value is applied to the subtotal.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid reports whether the value is a known DiscountType.
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	t := DiscountType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid discount type %q", value)
	}
	return t, nil
}
