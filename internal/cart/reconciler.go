package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/catalog"
	"github.com/dnghuy/vietcart-backend/internal/localcart"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	"github.com/dnghuy/vietcart-backend/pkg/metrics"
	pkgredis "github.com/dnghuy/vietcart-backend/pkg/redis"
)

type mergeGuard interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Reconciler merges a device-local guest cart into the authenticated cart
// exactly once per login transition, then destroys the local cart. Failures
// are silent to the user: the local cart is preserved and the next auth event
// retries the merge.
type Reconciler struct {
	repo     Repository
	variants catalog.VariantRepository
	local    *localcart.Store
	tx       txRunner
	guard    mergeGuard
	guardTTL time.Duration
	logg     *logger.Logger
}

// NewReconciler wires the reconciliation service.
func NewReconciler(repo Repository, variants catalog.VariantRepository, local *localcart.Store, tx txRunner, guard mergeGuard, guardTTL time.Duration, logg *logger.Logger) (*Reconciler, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant repository required")
	}
	if local == nil {
		return nil, fmt.Errorf("local cart store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("merge guard required")
	}
	if guardTTL <= 0 {
		guardTTL = 12 * time.Hour
	}
	return &Reconciler{
		repo:     repo,
		variants: variants,
		local:    local,
		tx:       tx,
		guard:    guard,
		guardTTL: guardTTL,
		logg:     logg,
	}, nil
}

// Merge fires on an authentication event. The SETNX guard debounces duplicate
// events for one session; the transaction makes the merge all-or-nothing so a
// retry never double-counts a line.
func (r *Reconciler) Merge(ctx context.Context, sessionID string, userID uuid.UUID, deviceID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if deviceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device id required")
	}

	guardKey := pkgredis.MergeGuardKey(sessionID)
	acquired, err := r.guard.SetNX(ctx, guardKey, deviceID, r.guardTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire merge guard")
	}
	if !acquired {
		metrics.CartMergesTotal.WithLabelValues("debounced").Inc()
		return nil
	}

	if err := r.mergeWithRetry(ctx, userID, deviceID); err != nil {
		// Release the guard so the next auth event can retry; the local
		// cart is still intact.
		_ = r.guard.Del(ctx, guardKey)
		metrics.CartMergesTotal.WithLabelValues("failed").Inc()
		if r.logg != nil {
			r.logg.Error(ctx, "cart merge failed, local cart preserved", err)
		}
		return err
	}

	metrics.CartMergesTotal.WithLabelValues("merged").Inc()
	return nil
}

// mergeWithRetry retries the merge transaction alone. Once it commits the
// merge is done: re-running it would sum the same lines a second time, so the
// local-store cleanup afterwards is never allowed to trigger another pass.
func (r *Reconciler) mergeWithRetry(ctx context.Context, userID uuid.UUID, deviceID string) error {
	lines, err := r.local.ReadAll(ctx, deviceID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.mergeTx(ctx, userID, lines)
		if err != nil && pkgerrors.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	}); err != nil {
		return err
	}

	// Cleanup is best effort. On failure the guard stays held, so the stale
	// local copy cannot be re-merged within the debounce window.
	clearBackoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	if err := retry.Do(ctx, clearBackoff, func(ctx context.Context) error {
		if err := r.local.Clear(ctx, deviceID); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil && r.logg != nil {
		r.logg.Error(ctx, "clearing local cart after merge failed", err)
	}
	return nil
}

// mergeTx upserts every line in one transaction. Prices come from the
// catalog at merge time; the local cart never carries any. Lines whose
// variant has disappeared from the catalog are dropped.
func (r *Reconciler) mergeTx(ctx context.Context, userID uuid.UUID, lines []localcart.Line) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		variants := r.variants.WithTx(tx)
		record, err := repo.FindOrCreateByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart for merge")
		}
		for _, line := range lines {
			variant, err := variants.FindByID(ctx, line.VariantID)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					continue
				}
				return err
			}
			item := models.CartItem{
				CartID:           record.ID,
				VariantID:        line.VariantID,
				ProductID:        variant.ProductID,
				Quantity:         line.Quantity,
				UnitPriceVND:     variant.PriceVND,
				SaleUnitPriceVND: variant.SalePriceVND,
			}
			if err := repo.UpsertLine(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
			}
		}
		return nil
	})
}
