package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type txAdapter struct {
	db *gorm.DB
}

func (a txAdapter) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return a.db.WithContext(ctx).Transaction(fn)
}

type noOrders struct{}

func (noOrders) CodesByIDs(context.Context, []uuid.UUID) (map[uuid.UUID]string, error) {
	return map[uuid.UUID]string{}, nil
}

func newTestAdjuster(t *testing.T, db *gorm.DB) *Adjuster {
	t.Helper()
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db), noOrders{})
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	adjuster, err := NewAdjuster(ledgerSvc, txAdapter{db: db})
	if err != nil {
		t.Fatalf("new adjuster: %v", err)
	}
	return adjuster
}

func TestRecordInitialStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	adjuster := newTestAdjuster(t, db)
	variant := seedVariant(t, db, 0)
	ctx := context.Background()

	if err := adjuster.RecordInitialStock(ctx, variant.ID, 25, nil); err != nil {
		t.Fatalf("record initial stock: %v", err)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.StockQty != 25 {
		t.Fatalf("expected stock 25, got %d", reloaded.StockQty)
	}

	var entries []models.InventoryLedgerEntry
	if err := db.Where("variant_id = ?", variant.ID).Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(entries))
	}
	if entries[0].Reason != enums.LedgerReasonInitialStock || entries[0].ChangeAmount != 25 || entries[0].StockAfterChange != 25 {
		t.Fatalf("unexpected ledger entry: %+v", entries[0])
	}
}

func TestRecordInitialStockRejectedAfterHistory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	adjuster := newTestAdjuster(t, db)
	variant := seedVariant(t, db, 0)
	ctx := context.Background()

	if err := adjuster.RecordInitialStock(ctx, variant.ID, 10, nil); err != nil {
		t.Fatalf("record initial stock: %v", err)
	}

	err := adjuster.RecordInitialStock(ctx, variant.ID, 20, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAdjustSignedDeltas(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	adjuster := newTestAdjuster(t, db)
	variant := seedVariant(t, db, 10)
	ctx := context.Background()
	actor := uuid.New()

	after, err := adjuster.Adjust(ctx, variant.ID, -4, &actor)
	if err != nil {
		t.Fatalf("adjust down: %v", err)
	}
	if after != 6 {
		t.Fatalf("expected stock 6, got %d", after)
	}

	after, err = adjuster.Adjust(ctx, variant.ID, 3, &actor)
	if err != nil {
		t.Fatalf("adjust up: %v", err)
	}
	if after != 9 {
		t.Fatalf("expected stock 9, got %d", after)
	}

	var entries []models.InventoryLedgerEntry
	if err := db.Where("variant_id = ?", variant.ID).Order("created_at ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected two ledger entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Reason != enums.LedgerReasonManualAdjustment {
			t.Fatalf("unexpected reason %q", entry.Reason)
		}
		if entry.ActorID == nil || *entry.ActorID != actor {
			t.Fatalf("expected actor recorded on entry %+v", entry)
		}
	}
}

func TestAdjustBelowZeroRejected(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	adjuster := newTestAdjuster(t, db)
	variant := seedVariant(t, db, 2)
	ctx := context.Background()

	_, err := adjuster.Adjust(ctx, variant.ID, -5, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStockInsufficient {
		t.Fatalf("expected stock insufficient, got %v", err)
	}

	// A rejected adjustment must not leave a ledger entry behind.
	var count int64
	if err := db.Model(&models.InventoryLedgerEntry{}).Where("variant_id = ?", variant.ID).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no ledger entries, got %d", count)
	}
}

func TestAdjustZeroDelta(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	adjuster := newTestAdjuster(t, db)

	_, err := adjuster.Adjust(context.Background(), uuid.New(), 0, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
