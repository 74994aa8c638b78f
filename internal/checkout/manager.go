package checkout

import (
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

// Manager holds the in-flight checkout machines, one per session. Drafts are
// memory-only: an expired or evicted draft just means the shopper starts
// checkout again from their intact cart.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	methods  methodChecker
	now      func() time.Time
}

type session struct {
	machine *Machine
	touched time.Time
}

// NewManager builds the draft registry. ttl bounds how long an idle draft
// survives; now may be nil for wall-clock.
func NewManager(ttl time.Duration, methods methodChecker, now func() time.Time) (*Manager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("draft ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*session),
		ttl:      ttl,
		methods:  methods,
		now:      now,
	}, nil
}

// Begin starts a fresh checkout for the session, replacing any existing draft.
func (m *Manager) Begin(sessionID string, authenticated bool) (*Machine, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	machine := NewMachine(authenticated, m.methods)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	m.sessions[sessionID] = &session{machine: machine, touched: m.now()}
	return machine, nil
}

// Get returns the session's active machine, refreshing its idle timer.
func (m *Manager) Get(sessionID string) (*Machine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()

	entry, ok := m.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	entry.touched = m.now()
	return entry.machine, nil
}

// End drops the session's draft, used after a successful placement.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) sweepLocked() {
	cutoff := m.now().Add(-m.ttl)
	for id, entry := range m.sessions {
		if entry.touched.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
