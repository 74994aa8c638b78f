package discounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:discounts_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Discount{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(db, func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedDiscount(t *testing.T, db *gorm.DB, discount *models.Discount) *models.Discount {
	t.Helper()
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("seed discount: %v", err)
	}
	return discount
}

func TestValidatePercentageDiscount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	discount := seedDiscount(t, db, &models.Discount{
		Code:     "SALE15",
		Type:     enums.DiscountTypePercentage,
		Percent:  decimal.NewFromFloat(15),
		IsActive: true,
	})

	applied, err := svc.Validate(context.Background(), nil, discount.ID, 333_333)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	// 15% of 333,333 is 49,999.95; the shopper gets the floor.
	if applied.AmountVND != 49_999 {
		t.Fatalf("expected 49999, got %d", applied.AmountVND)
	}
}

func TestValidateFixedDiscountCappedAtSubtotal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	discount := seedDiscount(t, db, &models.Discount{
		Code:      "GIAM50K",
		Type:      enums.DiscountTypeFixed,
		AmountVND: 50_000,
		IsActive:  true,
	})

	applied, err := svc.Validate(context.Background(), nil, discount.ID, 30_000)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if applied.AmountVND != 30_000 {
		t.Fatalf("expected discount capped at subtotal, got %d", applied.AmountVND)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	cases := []struct {
		name     string
		discount *models.Discount
		subtotal int64
	}{
		{
			name:     "inactive",
			discount: &models.Discount{Code: "OFF", Type: enums.DiscountTypeFixed, AmountVND: 1_000, IsActive: false},
			subtotal: 100_000,
		},
		{
			name:     "not yet valid",
			discount: &models.Discount{Code: "SOON", Type: enums.DiscountTypeFixed, AmountVND: 1_000, IsActive: true, StartsAt: &future},
			subtotal: 100_000,
		},
		{
			name:     "expired",
			discount: &models.Discount{Code: "LATE", Type: enums.DiscountTypeFixed, AmountVND: 1_000, IsActive: true, ExpiresAt: &past},
			subtotal: 100_000,
		},
		{
			name:     "below minimum",
			discount: &models.Discount{Code: "BIG", Type: enums.DiscountTypeFixed, AmountVND: 1_000, IsActive: true, MinSubtotalVND: 500_000},
			subtotal: 100_000,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seedDiscount(t, db, tc.discount)
			_, err := svc.Validate(ctx, nil, tc.discount.ID, tc.subtotal)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDiscountInvalid {
				t.Fatalf("expected discount invalid, got %v", err)
			}
		})
	}
}

func TestValidateUnknownDiscount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Validate(context.Background(), nil, uuid.New(), 100_000)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDiscountInvalid {
		t.Fatalf("expected discount invalid, got %v", err)
	}
}

func TestComputeFullPercentageCap(t *testing.T) {
	t.Parallel()

	discount := &models.Discount{
		Type:    enums.DiscountTypePercentage,
		Percent: decimal.NewFromInt(100),
	}
	amount, err := Compute(discount, 75_000)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if amount != 75_000 {
		t.Fatalf("expected full subtotal, got %d", amount)
	}
}
