package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/internal/catalog"
	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes authenticated cart mutations. Guest mutations go through
// the local cart store instead; a caller never mixes the two for one line.
type Service interface {
	Add(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*models.Cart, error)
	Update(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*models.Cart, error)
	Remove(ctx context.Context, userID, variantID uuid.UUID) (*models.Cart, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo     Repository
	variants catalog.VariantRepository
	tx       txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, variants catalog.VariantRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, variants: variants, tx: tx}, nil
}

// Add puts quantity of a variant into the user's cart, creating the cart
// lazily and summing quantities when the variant is already present. Prices
// are captured from the catalog at add time; stock is not checked here.
func (s *service) Add(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindOrCreateByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		item := models.CartItem{
			CartID:           record.ID,
			VariantID:        variant.ID,
			ProductID:        variant.ProductID,
			Quantity:         quantity,
			UnitPriceVND:     variant.PriceVND,
			SaleUnitPriceVND: variant.SalePriceVND,
		}
		if err := repo.UpsertLine(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart line")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Update sets the quantity for a variant; zero or negative removes the line.
func (s *service) Update(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quantity <= 0 {
		return s.Remove(ctx, userID, variantID)
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.UpdateLineQuantity(ctx, record.ID, variantID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.Get(ctx, userID)
}

// Remove deletes the variant's line from the user's cart.
func (s *service) Remove(ctx context.Context, userID, variantID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.DeleteLine(ctx, record.ID, variantID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return s.Get(ctx, userID)
}

// Get returns the user's cart; a user without one gets an empty cart view.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Cart{UserID: userID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}
