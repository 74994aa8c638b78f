package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is an immutable snapshot of a cart line at placement time. Name
// and price are frozen here and must never be recomputed from the catalog.
type OrderItem struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID             uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID           uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	ProductNameSnapshot string    `gorm:"column:product_name_snapshot;not null"`
	ImageURLSnapshot    *string   `gorm:"column:image_url_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"column:unit_price_snapshot;not null"`
	Quantity            int       `gorm:"column:quantity;not null"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is the frozen price times quantity.
func (i OrderItem) LineTotal() int64 {
	return i.UnitPriceSnapshot * int64(i.Quantity)
}
