package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type orderCodeLoader interface {
	CodesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Service records and reads the append-only stock audit trail.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.InventoryLedgerEntry, error)
	History(ctx context.Context, variantID uuid.UUID) ([]HistoryEntry, error)
}

// AppendInput captures the immutable data a ledger entry requires.
// StockAfter must already reflect the applied change.
type AppendInput struct {
	VariantID    uuid.UUID
	ChangeAmount int
	Reason       enums.LedgerReason
	OrderID      *uuid.UUID
	StockAfter   int
	ActorID      *uuid.UUID
}

// HistoryEntry is a ledger row enriched for display, newest first.
type HistoryEntry struct {
	ID            uuid.UUID  `json:"id"`
	VariantID     uuid.UUID  `json:"variant_id"`
	ChangeAmount  int        `json:"change_amount"`
	StockAfter    int        `json:"stock_after_change"`
	Reason        string     `json:"reason"`
	ReasonDisplay string     `json:"reason_display"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	OrderCode     string     `json:"order_code,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type service struct {
	repo   Repository
	orders orderCodeLoader
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, orders orderCodeLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order code loader required")
	}
	return &service{repo: repo, orders: orders}, nil
}

// Append writes one ledger entry inside the caller's transaction so the
// entry commits or rolls back with the stock change it records.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.InventoryLedgerEntry, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if input.ChangeAmount == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change amount must be non-zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger reason %q", input.Reason))
	}
	if input.StockAfter < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock after change cannot be negative")
	}

	entry := &models.InventoryLedgerEntry{
		VariantID:        input.VariantID,
		ChangeAmount:     input.ChangeAmount,
		Reason:           input.Reason,
		OrderID:          input.OrderID,
		StockAfterChange: input.StockAfter,
		ActorID:          input.ActorID,
	}

	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return entry, nil
}

// History returns the variant's entries newest first, each with a
// human-readable reason and, for order-linked entries, the order reference.
func (s *service) History(ctx context.Context, variantID uuid.UUID) ([]HistoryEntry, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}

	entries, err := s.repo.ListByVariant(ctx, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	var orderIDs []uuid.UUID
	for _, entry := range entries {
		if entry.OrderID != nil {
			orderIDs = append(orderIDs, *entry.OrderID)
		}
	}
	codes := map[uuid.UUID]string{}
	if len(orderIDs) > 0 {
		codes, err = s.orders.CodesByIDs(ctx, orderIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order references")
		}
	}

	result := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		view := HistoryEntry{
			ID:           entry.ID,
			VariantID:    entry.VariantID,
			ChangeAmount: entry.ChangeAmount,
			StockAfter:   entry.StockAfterChange,
			Reason:       string(entry.Reason),
			OrderID:      entry.OrderID,
			CreatedAt:    entry.CreatedAt,
		}
		if entry.OrderID != nil {
			view.OrderCode = codes[*entry.OrderID]
		}
		view.ReasonDisplay = displayReason(entry.Reason, view.OrderCode)
		result = append(result, view)
	}
	return result, nil
}

func displayReason(reason enums.LedgerReason, orderCode string) string {
	switch reason {
	case enums.LedgerReasonInitialStock:
		return "Initial stock setup"
	case enums.LedgerReasonManualAdjustment:
		return "Manual stock adjustment"
	case enums.LedgerReasonOrderPlaced:
		if orderCode != "" {
			return fmt.Sprintf("Order placed (%s)", orderCode)
		}
		return "Order placed"
	case enums.LedgerReasonOrderCancelled:
		if orderCode != "" {
			return fmt.Sprintf("Order cancelled (%s)", orderCode)
		}
		return "Order cancelled"
	default:
		return string(reason)
	}
}
