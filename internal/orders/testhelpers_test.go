package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/activitylog"
	cartsvc "github.com/dnghuy/vietcart-backend/internal/cart"
	"github.com/dnghuy/vietcart-backend/internal/catalog"
	"github.com/dnghuy/vietcart-backend/internal/checkout"
	"github.com/dnghuy/vietcart-backend/internal/discounts"
	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/internal/paymentmethods"
	"github.com/dnghuy/vietcart-backend/internal/shipping"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/types"
)

var testNow = time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type txAdapter struct {
	db *gorm.DB
}

func (a txAdapter) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return a.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderIdempotencyKey{},
		&models.Refund{},
		&models.ProductVariant{},
		&models.InventoryLedgerEntry{},
		&models.Cart{},
		&models.CartItem{},
		&models.PaymentMethod{},
		&models.ShippingMethod{},
		&models.Discount{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestPlacer(t *testing.T, db *gorm.DB) Placer {
	t.Helper()
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db), NewRepository(db))
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	discountSvc, err := discounts.NewService(db, fixedNow)
	if err != nil {
		t.Fatalf("new discount service: %v", err)
	}
	placer, err := NewPlacer(
		NewRepository(db),
		cartsvc.NewRepository(db),
		catalog.NewVariantRepository(db),
		discountSvc,
		paymentmethods.NewRepository(db),
		shipping.NewRepository(db),
		ledgerSvc,
		txAdapter{db: db},
		nil,
		fixedNow,
	)
	if err != nil {
		t.Fatalf("new placer: %v", err)
	}
	return placer
}

func newTestLifecycle(t *testing.T, db *gorm.DB) Lifecycle {
	t.Helper()
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db), NewRepository(db))
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	activity, err := activitylog.NewService(db, nil)
	if err != nil {
		t.Fatalf("new activity service: %v", err)
	}
	lc, err := NewLifecycle(NewRepository(db), ledgerSvc, activity, txAdapter{db: db}, nil, fixedNow)
	if err != nil {
		t.Fatalf("new lifecycle: %v", err)
	}
	return lc
}

func seedVariant(t *testing.T, db *gorm.DB, name string, price int64, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:   uuid.New(),
		ProductName: name,
		SKU:         "SKU-" + uuid.NewString()[:8],
		PriceVND:    price,
		StockQty:    stock,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

func seedMethods(t *testing.T, db *gorm.DB, shippingFee int64) (paymentID, shippingID uuid.UUID) {
	t.Helper()
	payment := &models.PaymentMethod{Code: "cod", Name: "Thanh toán khi nhận hàng", IsActive: true}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("seed payment method: %v", err)
	}
	method := &models.ShippingMethod{Code: "standard", Name: "Giao hàng tiêu chuẩn", FeeVND: shippingFee, IsActive: true}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("seed shipping method: %v", err)
	}
	return payment.ID, method.ID
}

func seedCartLine(t *testing.T, db *gorm.DB, userID uuid.UUID, variant *models.ProductVariant, qty int, sale *int64) {
	t.Helper()
	repo := cartsvc.NewRepository(db)
	record, err := repo.FindOrCreateByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	item := models.CartItem{
		CartID:           record.ID,
		VariantID:        variant.ID,
		ProductID:        variant.ProductID,
		Quantity:         qty,
		UnitPriceVND:     variant.PriceVND,
		SaleUnitPriceVND: sale,
	}
	if err := repo.UpsertLine(context.Background(), item); err != nil {
		t.Fatalf("seed cart line: %v", err)
	}
}

func testDraft(paymentID, shippingID uuid.UUID) checkout.Draft {
	return checkout.Draft{
		ShippingAddress: types.Address{
			Line:     "45 Le Loi",
			Ward:     "Ben Thanh",
			District: "Quan 1",
			Province: "TP Ho Chi Minh",
		},
		PaymentMethodID:  paymentID,
		ShippingMethodID: shippingID,
	}
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}
