package enums

import "fmt"

// OrderStatus maps to the order_statuses reference table. The integer ids are
// stable and shared with the admin filtering UI; cancellation logic keys off
// OrderStatusCancelled directly.
type OrderStatus int

const (
	OrderStatusPending    OrderStatus = 1
	OrderStatusProcessing OrderStatus = 2
	OrderStatusShipped    OrderStatus = 3
	OrderStatusDelivered  OrderStatus = 4
	OrderStatusCancelled  OrderStatus = 5
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:    "pending",
	OrderStatusProcessing: "processing",
	OrderStatusShipped:    "shipped",
	OrderStatusDelivered:  "delivered",
	OrderStatusCancelled:  "cancelled",
}

// AllOrderStatuses lists every status in id order, for admin filter dropdowns.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("order_status(%d)", int(s))
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// ParseOrderStatus converts a stable integer id into an OrderStatus.
func ParseOrderStatus(id int) (OrderStatus, error) {
	status := OrderStatus(id)
	if !status.IsValid() {
		return 0, fmt.Errorf("invalid order status id %d", id)
	}
	return status, nil
}
