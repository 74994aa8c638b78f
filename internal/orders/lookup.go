package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

// Lookup serves order retrieval: authenticated owners by (orderID, userID),
// guests by the opaque access token issued at placement. Missing and
// not-owned are indistinguishable to the caller.
type Lookup struct {
	repo Repository
}

func NewLookup(repo Repository) (*Lookup, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &Lookup{repo: repo}, nil
}

func (l *Lookup) ForUser(ctx context.Context, orderID, userID uuid.UUID) (*Confirmation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := l.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	confirmation := NewConfirmation(order)
	return &confirmation, nil
}

func (l *Lookup) ForGuestToken(ctx context.Context, token string) (*Confirmation, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required")
	}
	order, err := l.repo.FindByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	confirmation := NewConfirmation(order)
	return &confirmation, nil
}
