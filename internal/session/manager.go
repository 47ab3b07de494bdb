package session

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"addon_engine/internal/cart"
	"addon_engine/internal/metrics"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or already closed sessions.
var ErrNotFound = errors.New("session not found")

// Session owns the cart and the random source of one shopping session.
// Nothing in a Session is shared with other sessions.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	cart     *cart.Cart
	rng      *rand.Rand
	lastSeen time.Time
	closed   bool
}

// Cart returns the session cart. Callers must hold the session via Manager.Do.
func (s *Session) Cart() *cart.Cart { return s.cart }

// Rand returns the session random source used for price sampling.
func (s *Session) Rand() *rand.Rand { return s.rng }

// Config controls new sessions.
type Config struct {
	// MaxCartItems caps the cart size; 0 means unbounded.
	MaxCartItems int
	// PriceSeed seeds every session's price sampler; 0 seeds from the clock.
	PriceSeed int64
}

// Manager manages cart sessions using an in-memory store.
type Manager struct {
	cfg      Config
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a new session with an empty cart.
func (m *Manager) Create() *Session {
	now := m.now()
	seed := m.cfg.PriceSeed
	if seed == 0 {
		seed = now.UnixNano()
	}

	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		cart:      cart.New(m.cfg.MaxCartItems),
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // price sampling only
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return s
}

// Get retrieves a session by its ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Do runs fn while holding the session exclusively, so a cart mutation and
// a recommendation run never interleave within one session.
func (m *Manager) Do(id string, fn func(s *Session) error) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.do(m.now(), fn)
}

// do 持有会话锁执行 fn；取到指针后会话可能已被并发关闭
func (s *Session) do(now time.Time, fn func(s *Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotFound
	}
	s.lastSeen = now
	return fn(s)
}

// Close ends a session and clears its cart.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.mu.Lock()
	s.closed = true
	s.cart.Clear()
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Expire closes sessions idle for longer than ttl and returns how many were removed.
func (m *Manager) Expire(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		if m.Close(id) == nil {
			removed++
		}
	}
	return removed
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
