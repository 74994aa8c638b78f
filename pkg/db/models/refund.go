package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Refund is the required side-input for moving an order's payment status to
// refunded/partially_refunded. Cancellation alone never creates one.
type Refund struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	AmountVND int64     `gorm:"column:amount_vnd;not null"`
	Method    string    `gorm:"column:method;not null"`
	Reason    string    `gorm:"column:reason;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Refund) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
