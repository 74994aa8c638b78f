package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the authenticated cart, one active record per user. Guest carts
// never touch this table; they live in the device-scoped local store until
// reconciliation.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is one line of a cart. (cart_id, variant_id) is unique: merging
// sums quantities instead of appending duplicates.
type CartItem struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID           uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_variant"`
	VariantID        uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_cart_variant"`
	ProductID        uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity         int       `gorm:"column:quantity;not null"`
	UnitPriceVND     int64     `gorm:"column:unit_price_vnd;not null"`
	SaleUnitPriceVND *int64    `gorm:"column:sale_unit_price_vnd"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// EffectiveUnitPrice prefers the sale price when one was captured.
func (i CartItem) EffectiveUnitPrice() int64 {
	if i.SaleUnitPriceVND != nil {
		return *i.SaleUnitPriceVND
	}
	return i.UnitPriceVND
}
