package localcart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/dnghuy/vietcart-backend/pkg/redis"
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return val, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	store, err := NewStore(kv, nil, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, kv
}

func TestAddSumsDuplicateVariant(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	variantID := uuid.New()

	line := Line{VariantID: variantID, ProductID: uuid.New(), Quantity: 2}
	if err := store.Add(ctx, "dev-1", line); err != nil {
		t.Fatalf("add: %v", err)
	}
	line.Quantity = 3
	if err := store.Add(ctx, "dev-1", line); err != nil {
		t.Fatalf("add again: %v", err)
	}

	lines, err := store.ReadAll(ctx, "dev-1")
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected summed quantity 5, got %d", lines[0].Quantity)
	}
}

func TestUpdateZeroRemovesLine(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	ctx := context.Background()
	variantID := uuid.New()

	if err := store.Add(ctx, "dev-2", Line{VariantID: variantID, ProductID: uuid.New(), Quantity: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Update(ctx, "dev-2", variantID, 0); err != nil {
		t.Fatalf("update to zero: %v", err)
	}

	lines, err := store.ReadAll(ctx, "dev-2")
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestUpdateMissingLine(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if err := store.Update(context.Background(), "dev-3", uuid.New(), 2); err == nil {
		t.Fatal("expected error for missing line")
	}
}

func TestCorruptPayloadFailsOpen(t *testing.T) {
	t.Parallel()

	store, kv := newTestStore(t)
	ctx := context.Background()
	key := pkgredis.LocalCartKey("dev-4")
	kv.data[key] = "{not json"

	lines, err := store.ReadAll(ctx, "dev-4")
	if err != nil {
		t.Fatalf("expected fail-open, got %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
	if _, ok := kv.data[key]; ok {
		t.Fatal("expected corrupt record to be discarded")
	}
}

func TestRemoveLastLineClearsKey(t *testing.T) {
	t.Parallel()

	store, kv := newTestStore(t)
	ctx := context.Background()
	variantID := uuid.New()

	if err := store.Add(ctx, "dev-5", Line{VariantID: variantID, ProductID: uuid.New(), Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Remove(ctx, "dev-5", variantID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := kv.data[pkgredis.LocalCartKey("dev-5")]; ok {
		t.Fatal("expected key to be deleted when cart empties")
	}
}
