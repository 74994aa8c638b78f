package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnghuy/vietcart-backend/pkg/db/models"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

// VariantRepository reads the slice of catalog data this subsystem needs.
// Catalog management itself lives elsewhere.
type VariantRepository interface {
	WithTx(tx *gorm.DB) VariantRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type variantRepository struct {
	db *gorm.DB
}

// NewVariantRepository binds the repository to the provided DB handle.
func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &variantRepository{db: tx}
}

func (r *variantRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return &variant, nil
}
