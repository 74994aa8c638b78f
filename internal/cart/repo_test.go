package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Cart{},
		&models.CartItem{},
		&models.ProductVariant{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type txAdapter struct {
	db *gorm.DB
}

func (a txAdapter) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return a.db.WithContext(ctx).Transaction(fn)
}

func TestFindOrCreateByUserIsLazy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := repo.FindByUser(ctx, userID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found before first use, got %v", err)
	}

	first, err := repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	second, err := repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected one cart per user, got %s and %s", first.ID, second.ID)
	}
}

func TestUpsertLineSumsQuantities(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record, err := repo.FindOrCreateByUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	variantID := uuid.New()
	productID := uuid.New()
	for _, qty := range []int{2, 3} {
		item := models.CartItem{
			CartID:       record.ID,
			VariantID:    variantID,
			ProductID:    productID,
			Quantity:     qty,
			UnitPriceVND: 120_000,
		}
		if err := repo.UpsertLine(ctx, item); err != nil {
			t.Fatalf("upsert line: %v", err)
		}
	}

	reloaded, err := repo.FindByUser(ctx, record.UserID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(reloaded.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(reloaded.Items))
	}
	if reloaded.Items[0].Quantity != 5 {
		t.Fatalf("expected summed quantity 5, got %d", reloaded.Items[0].Quantity)
	}
}

func TestUpdateLineQuantityMissingLine(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record, err := repo.FindOrCreateByUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}

	err = repo.UpdateLineQuantity(ctx, record.ID, uuid.New(), 3)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestClearLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record, err := repo.FindOrCreateByUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	for i := 0; i < 2; i++ {
		item := models.CartItem{
			CartID:       record.ID,
			VariantID:    uuid.New(),
			ProductID:    uuid.New(),
			Quantity:     1,
			UnitPriceVND: 50_000,
		}
		if err := repo.UpsertLine(ctx, item); err != nil {
			t.Fatalf("upsert line: %v", err)
		}
	}

	if err := repo.ClearLines(ctx, record.ID); err != nil {
		t.Fatalf("clear lines: %v", err)
	}

	reloaded, err := repo.FindByUser(ctx, record.UserID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(reloaded.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(reloaded.Items))
	}
}
