package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

// Shortfall describes a failed stock decrement: which variant, and how much
// stock was actually available.
type Shortfall struct {
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// Decrement atomically subtracts qty from the variant's stock inside tx. The
// read and write are one conditional UPDATE: zero rows affected means another
// checkout drained the stock first, and the caller gets StockInsufficient
// with the quantity actually available. Never split this into read-then-write.
func Decrement(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) (stockAfter int, err error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock decrement")
	}

	res := tx.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock_qty >= ?", variantID, qty).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		variant, loadErr := load(ctx, tx, variantID)
		if loadErr != nil {
			return 0, loadErr
		}
		return 0, pkgerrors.New(pkgerrors.CodeStockInsufficient, "insufficient stock for "+variant.ProductName).
			WithDetails(Shortfall{
				VariantID:   variantID,
				ProductName: variant.ProductName,
				Requested:   qty,
				Available:   variant.StockQty,
			})
	}

	// The row is locked by the UPDATE for the rest of the transaction, so
	// this read observes the post-decrement value.
	variant, err := load(ctx, tx, variantID)
	if err != nil {
		return 0, err
	}
	return variant.StockQty, nil
}

// Restock adds qty back to the variant's stock inside tx and returns the
// post-restock total. Used when an order is cancelled.
func Restock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) (stockAfter int, err error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for restock")
	}

	res := tx.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", qty))
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock")
	}
	if res.RowsAffected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	variant, err := load(ctx, tx, variantID)
	if err != nil {
		return 0, err
	}
	return variant.StockQty, nil
}

func load(ctx context.Context, tx *gorm.DB, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := tx.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return &variant, nil
}
