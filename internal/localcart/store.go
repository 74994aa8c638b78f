package localcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	pkgredis "github.com/dnghuy/vietcart-backend/pkg/redis"
)

// Line is one guest cart line. Duplicate variant ids are forbidden within a
// cart; Add sums quantities instead. Lines carry no prices: the catalog is
// the only price source, consulted at merge and at placement.
type Line struct {
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Store persists a guest cart in redis, scoped to one device, surviving
// process restarts. No stock checks happen here; stock is verified only at
// placement.
type Store struct {
	kv   pkgredis.KVStore
	logg *logger.Logger
	ttl  time.Duration
}

// NewStore binds the store to the provided key-value backend.
func NewStore(kv pkgredis.KVStore, logg *logger.Logger, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Store{kv: kv, logg: logg, ttl: ttl}, nil
}

// Add upserts a line: an existing variant has its quantity summed, a new
// variant is appended.
func (s *Store) Add(ctx context.Context, deviceID string, line Line) error {
	if deviceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device id required")
	}
	if line.VariantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	lines, err := s.ReadAll(ctx, deviceID)
	if err != nil {
		return err
	}

	found := false
	for i := range lines {
		if lines[i].VariantID == line.VariantID {
			lines[i].Quantity += line.Quantity
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, line)
	}
	return s.write(ctx, deviceID, lines)
}

// Update sets the quantity for a variant; zero or negative removes the line.
func (s *Store) Update(ctx context.Context, deviceID string, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, deviceID, variantID)
	}

	lines, err := s.ReadAll(ctx, deviceID)
	if err != nil {
		return err
	}
	for i := range lines {
		if lines[i].VariantID == variantID {
			lines[i].Quantity = quantity
			return s.write(ctx, deviceID, lines)
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// Remove deletes the line for a variant. Removing a missing line is a no-op.
func (s *Store) Remove(ctx context.Context, deviceID string, variantID uuid.UUID) error {
	lines, err := s.ReadAll(ctx, deviceID)
	if err != nil {
		return err
	}
	kept := lines[:0]
	for _, line := range lines {
		if line.VariantID != variantID {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return s.Clear(ctx, deviceID)
	}
	return s.write(ctx, deviceID, kept)
}

// ReadAll returns the current line set. Corrupt persisted state is treated as
// an empty cart and the corrupt record is discarded.
func (s *Store) ReadAll(ctx context.Context, deviceID string) ([]Line, error) {
	key := pkgredis.LocalCartKey(deviceID)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read local cart")
	}
	if raw == "" {
		return nil, nil
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "discarding corrupt local cart payload")
		}
		_ = s.kv.Del(ctx, key)
		return nil, nil
	}
	return lines, nil
}

// Clear removes the device's cart entirely.
func (s *Store) Clear(ctx context.Context, deviceID string) error {
	if err := s.kv.Del(ctx, pkgredis.LocalCartKey(deviceID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear local cart")
	}
	return nil
}

func (s *Store) write(ctx context.Context, deviceID string, lines []Line) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode local cart")
	}
	if err := s.kv.Set(ctx, pkgredis.LocalCartKey(deviceID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist local cart")
	}
	return nil
}
