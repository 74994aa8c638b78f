package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Adjuster handles the admin-side stock mutations that are not tied to an
// order: seeding initial stock and manual corrections. Every change lands in
// the ledger alongside the stock write.
type Adjuster struct {
	ledger ledger.Service
	tx     txRunner
}

func NewAdjuster(ledgerSvc ledger.Service, tx txRunner) (*Adjuster, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Adjuster{ledger: ledgerSvc, tx: tx}, nil
}

// RecordInitialStock seeds a variant's stock. It is only valid while the
// variant has no ledger history yet; later corrections go through Adjust.
func (a *Adjuster) RecordInitialStock(ctx context.Context, variantID uuid.UUID, qty int, actorID *uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial stock must be positive")
	}
	return a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Model(&models.InventoryLedgerEntry{}).
			Where("variant_id = ?", variantID).
			Count(&count).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ledger history")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "variant already has stock history")
		}

		res := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ?", variantID).
			UpdateColumn("stock_qty", qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "set initial stock")
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}

		_, err := a.ledger.Append(ctx, tx, ledger.AppendInput{
			VariantID:    variantID,
			ChangeAmount: qty,
			Reason:       enums.LedgerReasonInitialStock,
			StockAfter:   qty,
			ActorID:      actorID,
		})
		return err
	})
}

// Adjust applies a signed manual correction. Negative deltas use the same
// conditional decrement as placement so stock can never go below zero.
func (a *Adjuster) Adjust(ctx context.Context, variantID uuid.UUID, delta int, actorID *uuid.UUID) (stockAfter int, err error) {
	if delta == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "adjustment must be non-zero")
	}
	err = a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		if delta > 0 {
			stockAfter, txErr = Restock(ctx, tx, variantID, delta)
		} else {
			stockAfter, txErr = Decrement(ctx, tx, variantID, -delta)
		}
		if txErr != nil {
			return txErr
		}
		_, txErr = a.ledger.Append(ctx, tx, ledger.AppendInput{
			VariantID:    variantID,
			ChangeAmount: delta,
			Reason:       enums.LedgerReasonManualAdjustment,
			StockAfter:   stockAfter,
			ActorID:      actorID,
		})
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return stockAfter, nil
}
