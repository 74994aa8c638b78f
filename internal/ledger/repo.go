package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
)

// Repository manages persistence for inventory ledger entries. The table is
// append-only: there is deliberately no update or delete here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.InventoryLedgerEntry) error
	ListByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryLedgerEntry, error)
	SumChangesByVariant(ctx context.Context, variantID uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, entry *models.InventoryLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryLedgerEntry, error) {
	var entries []models.InventoryLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumChangesByVariant(ctx context.Context, variantID uuid.UUID) (int, error) {
	var total *int
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryLedgerEntry{}).
		Select("SUM(change_amount)").
		Where("variant_id = ?", variantID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
