package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant carries the slice of catalog data this subsystem needs:
// identity, display fields for snapshots, price, and the stock counter that
// placement decrements conditionally.
type ProductVariant struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName  string    `gorm:"column:product_name;not null"`
	SKU          string    `gorm:"column:sku;not null;uniqueIndex"`
	ImageURL     *string   `gorm:"column:image_url"`
	PriceVND     int64     `gorm:"column:price_vnd;not null"`
	SalePriceVND *int64    `gorm:"column:sale_price_vnd"`
	StockQty     int       `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// UnitPrice returns the effective price, preferring the sale price when set.
func (v ProductVariant) UnitPrice() int64 {
	if v.SalePriceVND != nil {
		return *v.SalePriceVND
	}
	return v.PriceVND
}
