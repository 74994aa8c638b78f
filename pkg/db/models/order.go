package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/enums"
	"github.com/dnghuy/vietcart-backend/pkg/types"
)

// Order is created exactly once per successful placement. Everything except
// status_id, payment_status and the denormalized timestamps is immutable
// after creation.
type Order struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Code string    `gorm:"column:code;not null;uniqueIndex"`

	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	GuestName   *string    `gorm:"column:guest_name"`
	GuestPhone  *string    `gorm:"column:guest_phone"`
	GuestEmail  *string    `gorm:"column:guest_email"`
	AccessToken *string    `gorm:"column:access_token;uniqueIndex"`

	StatusID      enums.OrderStatus   `gorm:"column:status_id;not null;default:1"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`

	PaymentMethodID  uuid.UUID     `gorm:"column:payment_method_id;type:uuid;not null"`
	ShippingMethodID uuid.UUID     `gorm:"column:shipping_method_id;type:uuid;not null"`
	ShippingAddress  types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryNotes    *string       `gorm:"column:delivery_notes"`
	DiscountID       *uuid.UUID    `gorm:"column:discount_id;type:uuid"`

	SubtotalVND    int64 `gorm:"column:subtotal_vnd;not null"`
	DiscountVND    int64 `gorm:"column:discount_vnd;not null;default:0"`
	ShippingFeeVND int64 `gorm:"column:shipping_fee_vnd;not null;default:0"`
	TotalVND       int64 `gorm:"column:total_vnd;not null"`

	PlacedAt    time.Time  `gorm:"column:placed_at;not null"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// IsGuest reports whether the order was placed without a session.
func (o Order) IsGuest() bool {
	return o.UserID == nil
}
