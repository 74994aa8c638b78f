package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type stubCodeLoader struct {
	codes map[uuid.UUID]string
}

func (s stubCodeLoader) CodesByIDs(context.Context, []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.codes, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryLedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, codes map[uuid.UUID]string) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), stubCodeLoader{codes: codes})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestHistoryNewestFirstWithOrderReferences(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variantID := uuid.New()
	orderID := uuid.New()
	svc := newTestService(t, db, map[uuid.UUID]string{orderID: "VC260901-A1B2"})
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	seed := []models.InventoryLedgerEntry{
		{VariantID: variantID, ChangeAmount: 50, Reason: enums.LedgerReasonInitialStock, StockAfterChange: 50, CreatedAt: base},
		{VariantID: variantID, ChangeAmount: -2, Reason: enums.LedgerReasonOrderPlaced, OrderID: &orderID, StockAfterChange: 48, CreatedAt: base.Add(time.Hour)},
		{VariantID: variantID, ChangeAmount: 2, Reason: enums.LedgerReasonOrderCancelled, OrderID: &orderID, StockAfterChange: 50, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed ledger entry: %v", err)
		}
	}

	history, err := svc.History(ctx, variantID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].ReasonDisplay != "Order cancelled (VC260901-A1B2)" {
		t.Fatalf("unexpected newest entry display: %q", history[0].ReasonDisplay)
	}
	if history[1].ReasonDisplay != "Order placed (VC260901-A1B2)" {
		t.Fatalf("unexpected display: %q", history[1].ReasonDisplay)
	}
	if history[2].ReasonDisplay != "Initial stock setup" {
		t.Fatalf("unexpected oldest entry display: %q", history[2].ReasonDisplay)
	}
	if history[0].OrderCode != "VC260901-A1B2" {
		t.Fatalf("expected order code on linked entry, got %q", history[0].OrderCode)
	}
}

func TestAppendValidatesInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input AppendInput
	}{
		{"missing variant", AppendInput{ChangeAmount: 1, Reason: enums.LedgerReasonInitialStock, StockAfter: 1}},
		{"zero change", AppendInput{VariantID: uuid.New(), Reason: enums.LedgerReasonInitialStock, StockAfter: 1}},
		{"bad reason", AppendInput{VariantID: uuid.New(), ChangeAmount: 1, Reason: "restocked", StockAfter: 1}},
		{"negative stock after", AppendInput{VariantID: uuid.New(), ChangeAmount: -1, Reason: enums.LedgerReasonOrderPlaced, StockAfter: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(ctx, nil, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSumChangesMatchesRunningTotal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc := newTestService(t, db, nil)
	ctx := context.Background()
	variantID := uuid.New()

	changes := []int{40, -3, -5, 8}
	stock := 0
	for _, change := range changes {
		stock += change
		reason := enums.LedgerReasonManualAdjustment
		if stock == change {
			reason = enums.LedgerReasonInitialStock
		}
		if _, err := svc.Append(ctx, nil, AppendInput{
			VariantID:    variantID,
			ChangeAmount: change,
			Reason:       reason,
			StockAfter:   stock,
		}); err != nil {
			t.Fatalf("append %d: %v", change, err)
		}
	}

	total, err := repo.SumChangesByVariant(ctx, variantID)
	if err != nil {
		t.Fatalf("sum changes: %v", err)
	}
	if total != stock {
		t.Fatalf("ledger sum %d does not match running stock %d", total, stock)
	}
}

func TestSumChangesEmptyLedger(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	total, err := repo.SumChangesByVariant(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("sum changes: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected zero for empty ledger, got %d", total)
	}
}
