// Package cart implements the session cart: an ordered mapping from product
// to chosen quantity, the single source of truth for "what is in the cart".
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/naranjashop/storefront/internal/domain/catalog"
)

// Item is one product and its chosen quantity. Stored quantities are always
// at least 1: a quantity driven to zero removes the item instead.
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns unit price times quantity for this item.
func (it Item) LineTotal() decimal.Decimal {
	return it.Product.UnitPrice().Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Store persists cart snapshots keyed by session ID. Implementations are
// best-effort: callers swallow write errors, the in-memory cart stays
// authoritative for the life of the session.
type Store interface {
	Save(ctx context.Context, sessionID string, items []Item) error
	LoadAll(ctx context.Context) (map[string][]Item, error)
	Delete(ctx context.Context, sessionID string) error
}

// Cart holds the items of one session in insertion order. All mutations go
// through Add, Remove, SetQuantity and Clear; the item slice is never handed
// out by reference. Safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore returns a cart pre-populated with a persisted snapshot.
// Entries with non-positive quantities are dropped.
func Restore(items []Item) *Cart {
	c := &Cart{items: make([]Item, 0, len(items))}
	for _, it := range items {
		if it.Quantity > 0 {
			c.items = append(c.items, it)
		}
	}
	return c
}

// Add puts qty units of p into the cart, incrementing the existing entry when
// the product is already present. Quantities below 1 add a single unit.
// Stock is deliberately not checked here: the ceiling is advisory and
// enforced by the caller that triggers the add.
func (c *Cart) Add(p catalog.Product, qty int) {
	if qty < 1 {
		qty = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity += qty
		c.items[i].Product = p // refresh the snapshot
		return
	}
	c.items = append(c.items, Item{Product: p, Quantity: qty})
}

// Remove deletes the entry for productID. Removing an absent product is a
// no-op, not an error.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(productID)
}

// SetQuantity sets the entry for productID to exactly qty. A qty of zero or
// below removes the entry. Setting a quantity for a product that is not in
// the cart is a no-op: only Add introduces new products.
func (c *Cart) SetQuantity(productID int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		c.remove(productID)
		return
	}
	if i := c.index(productID); i >= 0 {
		c.items[i].Quantity = qty
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the cart contents in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the sum of all quantities, for badge display.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// Subtotal returns the sum of unit price times quantity across the cart,
// preferring offer prices over list prices.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// index returns the position of productID in items, or -1. Caller holds mu.
func (c *Cart) index(productID int64) int {
	for i, it := range c.items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

// remove deletes productID from items preserving order. Caller holds mu.
func (c *Cart) remove(productID int64) {
	if i := c.index(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Subtotal computes the subtotal of an item snapshot without a Cart.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
