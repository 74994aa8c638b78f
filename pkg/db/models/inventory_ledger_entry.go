package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/enums"
)

// InventoryLedgerEntry is the append-only stock audit trail. StockAfterChange
// is the variant's running total after applying ChangeAmount; rows are never
// updated or deleted.
type InventoryLedgerEntry struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	VariantID        uuid.UUID          `gorm:"column:variant_id;type:uuid;not null;index"`
	ChangeAmount     int                `gorm:"column:change_amount;not null"`
	Reason           enums.LedgerReason `gorm:"column:reason;not null"`
	OrderID          *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	StockAfterChange int                `gorm:"column:stock_after_change;not null"`
	ActorID          *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (e *InventoryLedgerEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
