package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/cart"
	"github.com/dnghuy/vietcart-backend/internal/catalog"
	"github.com/dnghuy/vietcart-backend/internal/checkout"
	"github.com/dnghuy/vietcart-backend/internal/discounts"
	"github.com/dnghuy/vietcart-backend/internal/inventory"
	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/internal/localcart"
	"github.com/dnghuy/vietcart-backend/internal/paymentmethods"
	"github.com/dnghuy/vietcart-backend/internal/shipping"
	"github.com/dnghuy/vietcart-backend/pkg/auth"
	pkgdb "github.com/dnghuy/vietcart-backend/pkg/db"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	"github.com/dnghuy/vietcart-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PlaceInput is everything a placement attempt needs. Authenticated attempts
// read their lines from the server-side cart; guest attempts carry the
// device-local lines, and the caller clears the local store only after a
// success response.
type PlaceInput struct {
	IdempotencyKey string
	UserID         *uuid.UUID
	Draft          checkout.Draft
	GuestLines     []localcart.Line
}

// Placer converts a draft plus cart into a persisted order, atomically.
type Placer interface {
	Place(ctx context.Context, input PlaceInput) (*Confirmation, error)
}

type placer struct {
	repo     Repository
	carts    cart.Repository
	variants catalog.VariantRepository
	disc     discounts.Service
	payments paymentmethods.Repository
	shipping shipping.Repository
	ledger   ledger.Service
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewPlacer wires the placement service. now may be nil for wall-clock.
func NewPlacer(
	repo Repository,
	carts cart.Repository,
	variants catalog.VariantRepository,
	disc discounts.Service,
	payments paymentmethods.Repository,
	shippingRepo shipping.Repository,
	ledgerSvc ledger.Service,
	tx txRunner,
	logg *logger.Logger,
	now func() time.Time,
) (Placer, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant repository required")
	}
	if disc == nil {
		return nil, fmt.Errorf("discount service required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment method repository required")
	}
	if shippingRepo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if now == nil {
		now = time.Now
	}
	return &placer{
		repo:     repo,
		carts:    carts,
		variants: variants,
		disc:     disc,
		payments: payments,
		shipping: shippingRepo,
		ledger:   ledgerSvc,
		tx:       tx,
		logg:     logg,
		now:      now,
	}, nil
}

type placedLine struct {
	variantID    uuid.UUID
	quantity     int
	unitPriceVND int64
}

// Place runs the whole placement as one transaction: conditional stock
// decrements, order and snapshot creation, ledger writes, cart clearing and
// the idempotency key insert all commit or roll back together. A replayed
// idempotency key returns the original order instead of creating another.
func (p *placer) Place(ctx context.Context, input PlaceInput) (*Confirmation, error) {
	if err := p.validateInput(input); err != nil {
		metrics.PlacementFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	// Fast replay path: a key seen before means the order already exists.
	if confirmation, ok, err := p.replay(ctx, input); err != nil {
		return nil, err
	} else if ok {
		return confirmation, nil
	}

	var (
		order       *models.Order
		accessToken string
	)
	err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := p.resolveLines(ctx, tx, input)
		if err != nil {
			return err
		}

		var subtotal int64
		for _, line := range lines {
			subtotal += line.unitPriceVND * int64(line.quantity)
		}

		var (
			discountVND int64
			discountID  *uuid.UUID
		)
		if input.Draft.DiscountID != nil {
			applied, err := p.disc.Validate(ctx, tx, *input.Draft.DiscountID, subtotal)
			if err != nil {
				return err
			}
			discountVND = applied.AmountVND
			discountID = &applied.Discount.ID
		}

		if _, err := p.payments.WithTx(tx).FindActiveByID(ctx, input.Draft.PaymentMethodID); err != nil {
			return err
		}
		method, err := p.shipping.WithTx(tx).FindActiveByID(ctx, input.Draft.ShippingMethodID)
		if err != nil {
			return err
		}

		placedAt := p.now()
		order = &models.Order{
			Code:             generateOrderCode(placedAt),
			UserID:           input.UserID,
			StatusID:         enums.OrderStatusPending,
			PaymentStatus:    enums.PaymentStatusPending,
			PaymentMethodID:  input.Draft.PaymentMethodID,
			ShippingMethodID: input.Draft.ShippingMethodID,
			ShippingAddress:  input.Draft.ShippingAddress,
			DiscountID:       discountID,
			SubtotalVND:      subtotal,
			DiscountVND:      discountVND,
			ShippingFeeVND:   method.FeeVND,
			TotalVND:         subtotal - discountVND + method.FeeVND,
			PlacedAt:         placedAt,
		}
		if notes := strings.TrimSpace(input.Draft.DeliveryNotes); notes != "" {
			order.DeliveryNotes = &notes
		}
		if input.UserID == nil {
			info := input.Draft.CustomerInfo
			order.GuestName = &info.Name
			order.GuestPhone = &info.Phone
			if info.Email != "" {
				order.GuestEmail = &info.Email
			}
			accessToken, err = auth.MintGuestToken()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint guest token")
			}
			order.AccessToken = &accessToken
		}

		repo := p.repo.WithTx(tx)
		variants := p.variants.WithTx(tx)

		// Decrement before creating items so a shortfall aborts with no
		// order rows written.
		type ledgerWrite struct {
			variantID  uuid.UUID
			quantity   int
			stockAfter int
		}
		writes := make([]ledgerWrite, 0, len(lines))
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			variant, err := variants.FindByID(ctx, line.variantID)
			if err != nil {
				return err
			}
			stockAfter, err := inventory.Decrement(ctx, tx, line.variantID, line.quantity)
			if err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				VariantID:           line.variantID,
				ProductNameSnapshot: variant.ProductName,
				ImageURLSnapshot:    variant.ImageURL,
				UnitPriceSnapshot:   line.unitPriceVND,
				Quantity:            line.quantity,
			})
			writes = append(writes, ledgerWrite{
				variantID:  line.variantID,
				quantity:   line.quantity,
				stockAfter: stockAfter,
			})
		}

		order.Items = items
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, write := range writes {
			if _, err := p.ledger.Append(ctx, tx, ledger.AppendInput{
				VariantID:    write.variantID,
				ChangeAmount: -write.quantity,
				Reason:       enums.LedgerReasonOrderPlaced,
				OrderID:      &order.ID,
				StockAfter:   write.stockAfter,
			}); err != nil {
				return err
			}
		}

		if input.UserID != nil {
			record, err := p.carts.WithTx(tx).FindByUser(ctx, *input.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart for clearing")
			}
			if err := p.carts.WithTx(tx).ClearLines(ctx, record.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
			}
		}

		if err := repo.CreateIdempotencyKey(ctx, input.IdempotencyKey, order.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// A concurrent attempt with the same key won the race; its order is
		// the canonical one.
		if pkgdb.IsUniqueViolation(err, "order_idempotency_keys") {
			if confirmation, ok, replayErr := p.replay(ctx, input); replayErr == nil && ok {
				return confirmation, nil
			}
		}
		metrics.PlacementFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersPlacedTotal.Inc()
	if p.logg != nil {
		p.logg.Info(p.logg.WithOrderID(ctx, order.ID.String()), "order placed")
	}

	confirmation := NewConfirmation(order)
	confirmation.AccessToken = accessToken
	return &confirmation, nil
}

func (p *placer) validateInput(input PlaceInput) error {
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key required")
	}
	if !input.Draft.ShippingAddress.IsComplete() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete")
	}
	if input.Draft.PaymentMethodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	if input.Draft.ShippingMethodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping method required")
	}
	if input.UserID == nil {
		info := input.Draft.CustomerInfo
		if strings.TrimSpace(info.Name) == "" || strings.TrimSpace(info.Phone) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "guest contact details required")
		}
		if len(input.GuestLines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
	}
	return nil
}

func (p *placer) resolveLines(ctx context.Context, tx *gorm.DB, input PlaceInput) ([]placedLine, error) {
	if input.UserID == nil {
		// Guest lines carry only variant and quantity; the price is always
		// the catalog's, never the client's.
		variants := p.variants.WithTx(tx)
		lines := make([]placedLine, 0, len(input.GuestLines))
		for _, line := range input.GuestLines {
			variant, err := variants.FindByID(ctx, line.VariantID)
			if err != nil {
				return nil, err
			}
			lines = append(lines, placedLine{
				variantID:    line.VariantID,
				quantity:     line.Quantity,
				unitPriceVND: variant.UnitPrice(),
			})
		}
		return lines, nil
	}

	record, err := p.carts.WithTx(tx).FindByUser(ctx, *input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines := make([]placedLine, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, placedLine{
			variantID:    item.VariantID,
			quantity:     item.Quantity,
			unitPriceVND: item.EffectiveUnitPrice(),
		})
	}
	return lines, nil
}

// replay returns the existing order for a seen idempotency key. The stored
// access token rides along so a guest retrying after a timeout still learns
// how to retrieve their order.
func (p *placer) replay(ctx context.Context, input PlaceInput) (*Confirmation, bool, error) {
	record, err := p.repo.FindIdempotencyKey(ctx, input.IdempotencyKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
	}

	order, err := p.repo.FindByID(ctx, record.OrderID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replayed order")
	}
	if p.logg != nil {
		p.logg.Info(p.logg.WithOrderID(ctx, order.ID.String()), "placement replayed from idempotency key")
	}

	confirmation := NewConfirmation(order)
	if order.IsGuest() && order.AccessToken != nil {
		confirmation.AccessToken = *order.AccessToken
	}
	return &confirmation, true, nil
}

func failureReason(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "internal"
	}
	switch typed.Code() {
	case pkgerrors.CodeStockInsufficient:
		return "stock_insufficient"
	case pkgerrors.CodeDiscountInvalid:
		return "discount_invalid"
	case pkgerrors.CodeValidation:
		return "validation"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeDependency:
		return "dependency"
	default:
		return strings.ToLower(string(typed.Code()))
	}
}

// generateOrderCode builds the human-facing order reference, date-prefixed
// with a random suffix. Collisions bounce off the unique index and surface as
// a retryable dependency error.
func generateOrderCode(at time.Time) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// Entropy exhaustion is effectively unreachable; fall back to nanos.
		return fmt.Sprintf("VC%s-%d", at.Format("060102"), at.UnixNano()%1_000_000)
	}
	return fmt.Sprintf("VC%s-%s", at.Format("060102"), strings.ToUpper(hex.EncodeToString(buf)))
}
