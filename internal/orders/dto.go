package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
)

// ImagePlaceholderURL is shown when a product image was never captured for a
// line snapshot.
const ImagePlaceholderURL = "/static/images/product-placeholder.png"

// Confirmation is the payload returned after placement and on order lookup.
type Confirmation struct {
	OrderID            uuid.UUID          `json:"order_id"`
	Code               string             `json:"code"`
	StatusID           int                `json:"status_id"`
	Status             string             `json:"status"`
	PaymentStatus      string             `json:"payment_status"`
	PaymentStatusLabel string             `json:"payment_status_label"`
	ShippingAddress    string             `json:"shipping_address"`
	DeliveryNotes      string             `json:"delivery_notes,omitempty"`
	Items              []ConfirmationItem `json:"items"`
	SubtotalVND        int64              `json:"subtotal_vnd"`
	DiscountVND        int64              `json:"discount_vnd"`
	ShippingFeeVND     int64              `json:"shipping_fee_vnd"`
	TotalVND           int64              `json:"total_vnd"`
	PlacedAt           time.Time          `json:"placed_at"`

	// AccessToken is present only on the guest placement response; lookups
	// never echo it back.
	AccessToken string `json:"access_token,omitempty"`
}

// ConfirmationItem is one snapshotted line of the confirmation.
type ConfirmationItem struct {
	VariantID    uuid.UUID `json:"variant_id"`
	ProductName  string    `json:"product_name"`
	ImageURL     string    `json:"image_url"`
	UnitPriceVND int64     `json:"unit_price_vnd"`
	Quantity     int       `json:"quantity"`
	LineTotalVND int64     `json:"line_total_vnd"`
}

// NewConfirmation builds the lookup payload from a persisted order.
func NewConfirmation(order *models.Order) Confirmation {
	items := make([]ConfirmationItem, 0, len(order.Items))
	for _, item := range order.Items {
		imageURL := ImagePlaceholderURL
		if item.ImageURLSnapshot != nil && *item.ImageURLSnapshot != "" {
			imageURL = *item.ImageURLSnapshot
		}
		items = append(items, ConfirmationItem{
			VariantID:    item.VariantID,
			ProductName:  item.ProductNameSnapshot,
			ImageURL:     imageURL,
			UnitPriceVND: item.UnitPriceSnapshot,
			Quantity:     item.Quantity,
			LineTotalVND: item.LineTotal(),
		})
	}

	notes := ""
	if order.DeliveryNotes != nil {
		notes = *order.DeliveryNotes
	}

	return Confirmation{
		OrderID:            order.ID,
		Code:               order.Code,
		StatusID:           int(order.StatusID),
		Status:             order.StatusID.String(),
		PaymentStatus:      order.PaymentStatus.String(),
		PaymentStatusLabel: order.PaymentStatus.Label(),
		ShippingAddress:    order.ShippingAddress.Format(),
		DeliveryNotes:      notes,
		Items:              items,
		SubtotalVND:        order.SubtotalVND,
		DiscountVND:        order.DiscountVND,
		ShippingFeeVND:     order.ShippingFeeVND,
		TotalVND:           order.TotalVND,
		PlacedAt:           order.PlacedAt,
	}
}
