package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/enums"
)

// Discount is re-validated at placement time; the draft's discount id is
// never trusted on its own.
type Discount struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex"`
	Type           enums.DiscountType `gorm:"column:type;not null"`
	Percent        decimal.Decimal    `gorm:"column:percent;type:numeric(5,2);not null;default:0"`
	AmountVND      int64              `gorm:"column:amount_vnd;not null;default:0"`
	MinSubtotalVND int64              `gorm:"column:min_subtotal_vnd;not null;default:0"`
	StartsAt       *time.Time         `gorm:"column:starts_at"`
	ExpiresAt      *time.Time         `gorm:"column:expires_at"`
	// No column default: gorm would omit a zero-value field with one, making
	// inactive rows impossible to insert.
	IsActive bool `gorm:"column:is_active;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Discount) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
