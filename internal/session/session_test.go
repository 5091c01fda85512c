package session

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/naranjashop/storefront/internal/domain/cart"
	"github.com/naranjashop/storefront/internal/domain/catalog"
	"github.com/naranjashop/storefront/internal/domain/coupon"
)

// --- Mock implementations ---

type mockStore struct {
	saved   map[string][]cart.Item
	deleted []string
	saveErr error
	loadErr error
}

func newMockStore() *mockStore {
	return &mockStore{saved: make(map[string][]cart.Item)}
}

func (m *mockStore) Save(_ context.Context, id string, items []cart.Item) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[id] = items
	return nil
}

func (m *mockStore) LoadAll(_ context.Context) (map[string][]cart.Item, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.saved, id)
	return nil
}

// --- Tests ---

func testProduct() catalog.Product {
	return catalog.Product{ID: 1, Name: "Yerba", Price: decimal.RequireFromString("100")}
}

func TestGet_CreatesOnce(t *testing.T) {
	m := NewManager(newMockStore(), zaptest.NewLogger(t))

	id := m.NewID()
	s1 := m.Get(id)
	s1.Cart.Add(testProduct(), 2)

	s2 := m.Get(id)
	assert.Same(t, s1, s2)
	assert.Equal(t, 2, s2.Cart.Count())
	assert.Equal(t, 1, m.Len())
}

func TestPersist_SavesSnapshot(t *testing.T) {
	store := newMockStore()
	m := NewManager(store, zaptest.NewLogger(t))

	s := m.Get("sid")
	s.Cart.Add(testProduct(), 2)
	m.Persist(context.Background(), s)

	require.Len(t, store.saved["sid"], 1)
	assert.Equal(t, 2, store.saved["sid"][0].Quantity)
}

func TestPersist_EmptyCartDropsFile(t *testing.T) {
	store := newMockStore()
	m := NewManager(store, zaptest.NewLogger(t))

	s := m.Get("sid")
	s.Cart.Add(testProduct(), 1)
	m.Persist(context.Background(), s)
	s.Cart.Clear()
	m.Persist(context.Background(), s)

	assert.Contains(t, store.deleted, "sid")
	assert.NotContains(t, store.saved, "sid")
}

func TestPersist_SwallowsWriteErrors(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("disk full")
	m := NewManager(store, zaptest.NewLogger(t))

	s := m.Get("sid")
	s.Cart.Add(testProduct(), 1)
	m.Persist(context.Background(), s) // must not panic or propagate

	assert.Equal(t, 1, s.Cart.Count(), "in-memory cart stays correct")
}

func TestRestore(t *testing.T) {
	store := newMockStore()
	store.saved["old-session"] = []cart.Item{{Product: testProduct(), Quantity: 3}}
	m := NewManager(store, zaptest.NewLogger(t))

	require.NoError(t, m.Restore(context.Background()))

	s := m.Get("old-session")
	assert.Equal(t, 3, s.Cart.Count())
}

func TestCouponState(t *testing.T) {
	s := &Session{ID: "sid", Cart: cart.New()}

	s.SetCoupon(CouponState{
		Code: "AHORRO10",
		Info: &coupon.Info{Valid: true, Type: coupon.TypePercent},
	})
	got := s.Coupon()
	assert.Equal(t, "AHORRO10", got.Code)
	require.NotNil(t, got.Info)

	// A new validation clears prior state before anything else happens.
	s.ResetCoupon()
	got = s.Coupon()
	assert.Empty(t, got.Code)
	assert.Nil(t, got.Info)
	assert.False(t, got.Failed)
}
