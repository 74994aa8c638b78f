package activitylog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
)

// Entry is one operational audit record.
type Entry struct {
	Type        string
	Description string
	EntityType  string
	EntityID    uuid.UUID
	ActorID     *uuid.UUID
}

// Service appends audit records. Record is fire-and-forget: a failed write is
// logged and swallowed so it never fails the triggering operation.
type Service struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewService binds the activity log writer.
func NewService(db *gorm.DB, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Service{db: db, logg: logg}, nil
}

// Record writes the entry asynchronously, detached from the caller's context
// so an already-finished request doesn't cancel the write.
func (s *Service) Record(ctx context.Context, entry Entry) {
	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		record := models.ActivityLog{
			Type:        entry.Type,
			Description: entry.Description,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			ActorID:     entry.ActorID,
		}
		if err := s.db.WithContext(writeCtx).Create(&record).Error; err != nil && s.logg != nil {
			s.logg.Error(writeCtx, "activity log write failed", err)
		}
	}()
}
