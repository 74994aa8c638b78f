package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is an append-only operational audit record. Writes are
// fire-and-forget; a failed write never fails the triggering operation.
type ActivityLog struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Type        string     `gorm:"column:type;not null"`
	Description string     `gorm:"column:description;not null"`
	EntityType  string     `gorm:"column:entity_type;not null"`
	EntityID    uuid.UUID  `gorm:"column:entity_id;type:uuid;not null"`
	ActorID     *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (a *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
