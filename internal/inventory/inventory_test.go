package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ProductVariant{},
		&models.InventoryLedgerEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:   uuid.New(),
		ProductName: "Binh Giu Nhiet",
		SKU:         "SKU-" + uuid.NewString()[:8],
		PriceVND:    250_000,
		StockQty:    stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

func TestDecrementHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variant := seedVariant(t, db, 10)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		after, err := Decrement(ctx, tx, variant.ID, 4)
		if err != nil {
			return err
		}
		if after != 6 {
			t.Fatalf("expected stock 6 after decrement, got %d", after)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("decrement transaction: %v", err)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.StockQty != 6 {
		t.Fatalf("expected persisted stock 6, got %d", reloaded.StockQty)
	}
}

func TestDecrementShortfall(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variant := seedVariant(t, db, 3)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, derr := Decrement(ctx, tx, variant.ID, 5)
		return derr
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStockInsufficient {
		t.Fatalf("expected stock insufficient, got %v", err)
	}

	// The details must tell the shopper what is actually available.
	payload, merr := json.Marshal(typed.Details())
	if merr != nil {
		t.Fatalf("marshal details: %v", merr)
	}
	var shortfall Shortfall
	if err := json.Unmarshal(payload, &shortfall); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if shortfall.Requested != 5 || shortfall.Available != 3 {
		t.Fatalf("unexpected shortfall: %+v", shortfall)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.StockQty != 3 {
		t.Fatalf("expected stock untouched, got %d", reloaded.StockQty)
	}
}

func TestDecrementDrainsToZeroThenRejects(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variant := seedVariant(t, db, 2)
	ctx := context.Background()

	if err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Decrement(ctx, tx, variant.ID, 2)
		return err
	}); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, derr := Decrement(ctx, tx, variant.ID, 1)
		return derr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStockInsufficient {
		t.Fatalf("expected stock insufficient on drained variant, got %v", err)
	}
}

func TestDecrementConcurrentBuyersNeverOversell(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variant := seedVariant(t, db, 1)
	ctx := context.Background()

	// One connection keeps the in-memory database serialized; the conditional
	// update still decides which buyer wins.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("underlying db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- db.Transaction(func(tx *gorm.DB) error {
				_, derr := Decrement(ctx, tx, variant.ID, 1)
				return derr
			})
		}()
	}

	var won, lost int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			won++
			continue
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStockInsufficient {
			t.Fatalf("expected stock insufficient for the losing buyer, got %v", err)
		}
		lost++
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner and one loser, got %d/%d", won, lost)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if reloaded.StockQty != 0 {
		t.Fatalf("expected stock drained to zero, got %d", reloaded.StockQty)
	}
}

func TestRestockUnknownVariant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, rerr := Restock(context.Background(), tx, uuid.New(), 3)
		return rerr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDecrementRejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	_, err := Decrement(context.Background(), db, uuid.New(), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
