package discounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

// Service re-validates a draft's discount at placement time and computes the
// amount it takes off the subtotal. The id stored on a draft is never
// trusted: the discount could have been deactivated or expired since review.
type Service interface {
	Validate(ctx context.Context, tx *gorm.DB, discountID uuid.UUID, subtotalVND int64) (*Applied, error)
}

// Applied is the result of a successful validation.
type Applied struct {
	Discount  *models.Discount
	AmountVND int64
}

type service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService returns the discount validator. now may be nil for wall-clock.
func NewService(db *gorm.DB, now func() time.Time) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{db: db, now: now}, nil
}

func (s *service) Validate(ctx context.Context, tx *gorm.DB, discountID uuid.UUID, subtotalVND int64) (*Applied, error) {
	if discountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount id required")
	}

	db := s.db
	if tx != nil {
		db = tx
	}

	var discount models.Discount
	if err := db.WithContext(ctx).Where("id = ?", discountID).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeDiscountInvalid, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}

	now := s.now()
	switch {
	case !discount.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeDiscountInvalid, "discount is no longer active").
			WithDetails(map[string]string{"code": discount.Code})
	case discount.StartsAt != nil && now.Before(*discount.StartsAt):
		return nil, pkgerrors.New(pkgerrors.CodeDiscountInvalid, "discount is not yet valid").
			WithDetails(map[string]string{"code": discount.Code})
	case discount.ExpiresAt != nil && now.After(*discount.ExpiresAt):
		return nil, pkgerrors.New(pkgerrors.CodeDiscountInvalid, "discount has expired").
			WithDetails(map[string]string{"code": discount.Code})
	case subtotalVND < discount.MinSubtotalVND:
		return nil, pkgerrors.New(pkgerrors.CodeDiscountInvalid, "order subtotal below discount minimum").
			WithDetails(map[string]any{
				"code":             discount.Code,
				"min_subtotal_vnd": discount.MinSubtotalVND,
			})
	}

	amount, err := Compute(&discount, subtotalVND)
	if err != nil {
		return nil, err
	}
	return &Applied{Discount: &discount, AmountVND: amount}, nil
}

// Compute returns the VND amount the discount removes from subtotal.
// Percentage math runs in decimal and rounds down so the customer is never
// charged a dong more than the advertised rate.
func Compute(discount *models.Discount, subtotalVND int64) (int64, error) {
	switch discount.Type {
	case enums.DiscountTypePercentage:
		amount := decimal.NewFromInt(subtotalVND).
			Mul(discount.Percent).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if amount > subtotalVND {
			amount = subtotalVND
		}
		return amount, nil
	case enums.DiscountTypeFixed:
		amount := discount.AmountVND
		if amount > subtotalVND {
			amount = subtotalVND
		}
		return amount, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown discount type %q", discount.Type))
	}
}
