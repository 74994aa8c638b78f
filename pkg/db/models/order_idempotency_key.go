package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderIdempotencyKey pins a client-generated checkout attempt key to the
// order it produced. A replayed placement hits the primary key and returns
// the original order instead of creating a duplicate.
type OrderIdempotencyKey struct {
	Key       string    `gorm:"column:key;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
