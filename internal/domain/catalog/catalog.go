package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist upstream.
var ErrNotFound = errors.New("product not found")

// Category groups products in the catalog.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog item as served by the shop API. Prices are decimal;
// OfferPrice, when set, is the active unit price and counts as a promotion
// only while it is strictly below Price.
type Product struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	OfferPrice  *decimal.Decimal `json:"offer_price"`
	Stock       int              `json:"stock"`
	Category    *Category        `json:"category"`
	Image       string           `json:"image"`
}

// UnitPrice returns the price a buyer actually pays for one unit: the offer
// price when it undercuts the list price, the list price otherwise.
func (p Product) UnitPrice() decimal.Decimal {
	if p.HasOffer() {
		return *p.OfferPrice
	}
	return p.Price
}

// HasOffer reports whether the product carries an active promotional price.
func (p Product) HasOffer() bool {
	return p.OfferPrice != nil && p.OfferPrice.LessThan(p.Price)
}

// OfferSaving returns the per-unit saving granted by the promotional price,
// or zero when no offer is active.
func (p Product) OfferSaving() decimal.Decimal {
	if !p.HasOffer() {
		return decimal.Zero
	}
	return p.Price.Sub(*p.OfferPrice)
}

// InStock reports whether any units are available. Stock is advisory: callers
// enforce it at the interaction layer, the cart never does.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Page is one page of product listing results.
type Page struct {
	Results  []Product `json:"results"`
	Count    int       `json:"count"`
	Next     string    `json:"next"`
	Previous string    `json:"previous"`
}

// Query holds the supported product listing parameters. Zero values are
// omitted from the upstream request.
type Query struct {
	Page     int
	Search   string
	Ordering string
	Category int64
	PageSize int
	Promoted bool
}

// Announcement is a storefront-wide notice.
type Announcement struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Source provides read access to the remote catalog.
type Source interface {
	Categories(ctx context.Context) ([]Category, error)
	Products(ctx context.Context, q Query) (*Page, error)
	Product(ctx context.Context, id int64) (*Product, error)
	Announcements(ctx context.Context) ([]Announcement, error)
}
