package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/activitylog"
	"github.com/dnghuy/vietcart-backend/internal/inventory"
	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	"github.com/dnghuy/vietcart-backend/pkg/metrics"
)

// legalTransitions is the complete transition table. Everything not listed
// is rejected, including any move out of Delivered or Cancelled.
var legalTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

// CanTransition reports whether from -> to is a legal status move.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// sourcesFor inverts the transition table: the statuses an order may be in
// for target to be reachable.
func sourcesFor(target enums.OrderStatus) []enums.OrderStatus {
	var sources []enums.OrderStatus
	for from, targets := range legalTransitions {
		for _, to := range targets {
			if to == target {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// BatchResult reports the outcome of one order within a batch update.
type BatchResult struct {
	OrderID uuid.UUID `json:"order_id"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
}

// RefundInput is the required side-input for refund payment transitions.
type RefundInput struct {
	AmountVND int64  `json:"amount_vnd"`
	Method    string `json:"method"`
	Reason    string `json:"reason"`
}

// Lifecycle applies status and payment-status changes under the transition
// rules, including cancellation restocking.
type Lifecycle interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID *uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, target enums.PaymentStatus, refund *RefundInput) (*models.Order, error)
	BatchUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, target enums.OrderStatus, actorID *uuid.UUID) []BatchResult
}

type lifecycle struct {
	repo     Repository
	ledger   ledger.Service
	activity *activitylog.Service
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewLifecycle wires the lifecycle manager. now may be nil for wall-clock.
func NewLifecycle(
	repo Repository,
	ledgerSvc ledger.Service,
	activity *activitylog.Service,
	tx txRunner,
	logg *logger.Logger,
	now func() time.Time,
) (Lifecycle, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity log service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if now == nil {
		now = time.Now
	}
	return &lifecycle{
		repo:     repo,
		ledger:   ledgerSvc,
		activity: activity,
		tx:       tx,
		logg:     logg,
		now:      now,
	}, nil
}

// UpdateStatus moves the order to target when the transition table allows
// it. Cancellation is routed through Cancel so the restock always happens.
func (l *lifecycle) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID *uuid.UUID) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if target == enums.OrderStatusCancelled {
		return l.Cancel(ctx, orderID, actorID)
	}

	sources := sourcesFor(target)
	if len(sources) == 0 {
		return nil, l.transitionRejection(ctx, l.repo, orderID, target)
	}

	extra := map[string]any{}
	if target == enums.OrderStatusDelivered {
		extra["delivered_at"] = l.now()
	}

	moved, err := l.repo.TransitionStatus(ctx, orderID, sources, target, extra)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !moved {
		return nil, l.transitionRejection(ctx, l.repo, orderID, target)
	}
	return l.loadOrder(ctx, orderID)
}

// Cancel flips the order to Cancelled and restores exactly the quantities
// its items recorded. Payment status is deliberately untouched: a captured
// payment needs an explicit refund step afterwards.
func (l *lifecycle) Cancel(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)

		// The conditional update is the serialization point: of two
		// concurrent cancels only one changes the row, and the loser never
		// restocks.
		moved, err := repo.TransitionStatus(ctx, orderID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing},
			enums.OrderStatusCancelled,
			map[string]any{"cancelled_at": l.now()})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !moved {
			// The rejection lookup must read through the open transaction;
			// a fresh connection would deadlock against it.
			return l.transitionRejection(ctx, repo, orderID, enums.OrderStatusCancelled)
		}

		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancelled order")
		}

		for _, item := range order.Items {
			stockAfter, err := inventory.Restock(ctx, tx, item.VariantID, item.Quantity)
			if err != nil {
				return err
			}
			if _, err := l.ledger.Append(ctx, tx, ledger.AppendInput{
				VariantID:    item.VariantID,
				ChangeAmount: item.Quantity,
				Reason:       enums.LedgerReasonOrderCancelled,
				OrderID:      &order.ID,
				StockAfter:   stockAfter,
				ActorID:      actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCancelledTotal.Inc()
	l.activity.Record(ctx, activitylog.Entry{
		Type:        "order_cancelled",
		Description: fmt.Sprintf("Order %s cancelled", order.Code),
		EntityType:  "order",
		EntityID:    order.ID,
		ActorID:     actorID,
	})
	if l.logg != nil {
		l.logg.Info(l.logg.WithOrderID(ctx, order.ID.String()), "order cancelled and stock restored")
	}
	return order, nil
}

// UpdatePaymentStatus records an externally-driven payment outcome. Refund
// statuses require a refund record as side-input; it is written atomically
// with the status change.
func (l *lifecycle) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, target enums.PaymentStatus, refund *RefundInput) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if target.IsRefund() && refund != nil {
		if refund.AmountVND <= 0 || refund.Method == "" || refund.Reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount, method and reason are all required")
		}
	}

	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		if target.IsRefund() {
			switch {
			case refund != nil:
				if err := repo.CreateRefund(ctx, &models.Refund{
					OrderID:   orderID,
					AmountVND: refund.AmountVND,
					Method:    refund.Method,
					Reason:    refund.Reason,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund record")
				}
			default:
				// A refund recorded earlier satisfies the requirement; the
				// caller only has to supply one when none exists yet.
				has, err := repo.HasRefund(ctx, orderID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing refund")
				}
				if !has {
					return pkgerrors.New(pkgerrors.CodeValidation, "a refund record is required to mark an order refunded")
				}
			}
		}
		if err := repo.UpdatePaymentStatus(ctx, orderID, target); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.loadOrder(ctx, orderID)
}

// BatchUpdateStatus applies the single-order rule to each order
// independently. One rejection never blocks the rest; the caller gets a
// per-order result list.
func (l *lifecycle) BatchUpdateStatus(ctx context.Context, orderIDs []uuid.UUID, target enums.OrderStatus, actorID *uuid.UUID) []BatchResult {
	results := make([]BatchResult, 0, len(orderIDs))
	var failures error
	for _, id := range orderIDs {
		_, err := l.UpdateStatus(ctx, id, target, actorID)
		result := BatchResult{OrderID: id, OK: err == nil}
		if err != nil {
			result.Error = err.Error()
			failures = multierr.Append(failures, fmt.Errorf("order %s: %w", id, err))
		}
		results = append(results, result)
	}
	if failures != nil && l.logg != nil {
		l.logg.Warn(l.logg.WithField(ctx, "failed", len(multierr.Errors(failures))), "batch status update had rejections")
	}
	return results
}

// transitionRejection explains why the conditional update matched no row:
// missing order versus illegal current status. Callers inside a transaction
// pass their tx-scoped repository.
func (l *lifecycle) transitionRejection(ctx context.Context, repo Repository, orderID uuid.UUID, target enums.OrderStatus) error {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move order from %s to %s", order.StatusID, target)).
		WithDetails(map[string]any{
			"current_status_id": int(order.StatusID),
			"current_status":    order.StatusID.String(),
			"target_status_id":  int(target),
		})
}

func (l *lifecycle) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := l.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
