// Package session tracks storefront sessions: each one owns a cart and the
// result of its latest coupon validation. Sessions are identified by an
// opaque ID minted here and carried by the client on every request.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/naranjashop/storefront/internal/domain/cart"
	"github.com/naranjashop/storefront/internal/domain/coupon"
)

// CouponState is the session's view of its latest coupon validation: the
// retained info when the upstream accepted the code, or an inline message
// with the failed flag set. Either way the checkout stays fully usable.
type CouponState struct {
	Code    string       `json:"code"`
	Info    *coupon.Info `json:"info,omitempty"`
	Message string       `json:"message,omitempty"`
	Failed  bool         `json:"failed"`
}

// Session is one customer's storefront state.
type Session struct {
	ID   string
	Cart *cart.Cart

	mu     sync.Mutex
	coupon CouponState
}

// Coupon returns the current coupon state.
func (s *Session) Coupon() CouponState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon
}

// SetCoupon stores the outcome of a coupon validation.
func (s *Session) SetCoupon(state CouponState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = state
}

// ResetCoupon clears any prior coupon state. Called before each new
// validation so a superseded in-flight result can never resurrect stale
// state on its own.
func (s *Session) ResetCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = CouponState{}
}

// Manager owns all live sessions and their persistence.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store cart.Store
	lg    *zap.Logger
}

// NewManager creates an empty Manager persisting carts through store.
func NewManager(store cart.Store, lg *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		lg:       lg,
	}
}

// Restore loads every persisted cart into memory. Called once at startup.
func (m *Manager) Restore(ctx context.Context) error {
	carts, err := m.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, items := range carts {
		m.sessions[id] = &Session{ID: id, Cart: cart.Restore(items)}
	}
	m.lg.Info("Restored session carts", zap.Int("count", len(carts)))
	return nil
}

// NewID mints a fresh session identifier.
func (m *Manager) NewID() string {
	return uuid.New().String()
}

// Get returns the session for id, creating an empty one if needed.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = &Session{ID: id, Cart: cart.New()}
	m.sessions[id] = s
	return s
}

// Persist writes the session's cart snapshot, dropping the file entirely
// when the cart is empty. Failures are logged and swallowed: persistence is
// best-effort and the in-memory cart stays correct for the session.
func (m *Manager) Persist(ctx context.Context, s *Session) {
	items := s.Cart.Items()

	var err error
	if len(items) == 0 {
		err = m.store.Delete(ctx, s.ID)
	} else {
		err = m.store.Save(ctx, s.ID, items)
	}
	if err != nil {
		m.lg.Warn("Cart persistence failed",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
