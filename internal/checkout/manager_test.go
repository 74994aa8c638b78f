package checkout

import (
	"testing"
	"time"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

func TestManagerExpiresIdleDrafts(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	mgr, err := NewManager(30*time.Minute, activeMethods(), now)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := mgr.Begin("sess-a", true); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := mgr.Get("sess-a"); err != nil {
		t.Fatalf("get fresh draft: %v", err)
	}

	current = current.Add(31 * time.Minute)
	_, err = mgr.Get("sess-a")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected expired draft to be gone, got %v", err)
	}
}

func TestManagerGetRefreshesIdleTimer(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	mgr, err := NewManager(30*time.Minute, activeMethods(), now)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := mgr.Begin("sess-b", false); err != nil {
		t.Fatalf("begin: %v", err)
	}

	// Touch the draft every 20 minutes; it must outlive the raw TTL.
	for i := 0; i < 3; i++ {
		current = current.Add(20 * time.Minute)
		if _, err := mgr.Get("sess-b"); err != nil {
			t.Fatalf("get after %d touches: %v", i+1, err)
		}
	}
}

func TestManagerBeginReplacesDraft(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(time.Hour, activeMethods(), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	first, err := mgr.Begin("sess-c", true)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	second, err := mgr.Begin("sess-c", true)
	if err != nil {
		t.Fatalf("begin again: %v", err)
	}
	if first == second {
		t.Fatal("expected a fresh machine on restart")
	}

	got, err := mgr.Get("sess-c")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != second {
		t.Fatal("expected the replacement draft to win")
	}
}

func TestManagerEnd(t *testing.T) {
	t.Parallel()

	mgr, err := NewManager(time.Hour, activeMethods(), nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := mgr.Begin("sess-d", true); err != nil {
		t.Fatalf("begin: %v", err)
	}
	mgr.End("sess-d")
	if _, err := mgr.Get("sess-d"); err == nil {
		t.Fatal("expected draft gone after end")
	}
}
