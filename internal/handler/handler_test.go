package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naranjashop/storefront/internal/domain/cart"
	"github.com/naranjashop/storefront/internal/domain/catalog"
	"github.com/naranjashop/storefront/internal/domain/coupon"
	"github.com/naranjashop/storefront/internal/domain/order"
	"github.com/naranjashop/storefront/internal/domain/pricing"
	"github.com/naranjashop/storefront/internal/domain/site"
	"github.com/naranjashop/storefront/internal/session"
	"github.com/naranjashop/storefront/internal/shopapi"
	"github.com/naranjashop/storefront/internal/whatsapp"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func product(id int64, name, price string) catalog.Product {
	return catalog.Product{ID: id, Name: name, Price: d(price), Stock: 10}
}

// --- Mock implementations ---

type stubCatalog struct {
	products map[int64]catalog.Product
	err      error
}

func (s *stubCatalog) Product(_ context.Context, id int64) (*catalog.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) Products(context.Context, catalog.Query) (*catalog.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		results = append(results, p)
	}
	return &catalog.Page{Results: results, Count: len(results)}, nil
}

func (s *stubCatalog) Categories(context.Context) ([]catalog.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []catalog.Category{{ID: 1, Name: "Almacén"}}, nil
}

func (s *stubCatalog) Announcements(context.Context) ([]catalog.Announcement, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

type stubSite struct {
	cfg site.Config
	err error
}

func (s *stubSite) SiteConfig(context.Context) (*site.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := s.cfg
	return &cfg, nil
}

type stubValidator struct {
	info *coupon.Info
	err  error
}

func (s *stubValidator) ValidateCoupon(context.Context, string) (*coupon.Info, error) {
	return s.info, s.err
}

type stubCreator struct {
	order *order.Order
	err   error
	draft order.Draft
}

func (s *stubCreator) CreateOrder(_ context.Context, draft order.Draft) (*order.Order, error) {
	s.draft = draft
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

type noopStore struct{}

func (noopStore) Save(context.Context, string, []cart.Item) error { return nil }
func (noopStore) Delete(context.Context, string) error            { return nil }
func (noopStore) LoadAll(context.Context) (map[string][]cart.Item, error) {
	return map[string][]cart.Item{}, nil
}

// --- Test fixture ---

type fixture struct {
	mux      *http.ServeMux
	catalog  *stubCatalog
	site     *stubSite
	coupons  *stubValidator
	creator  *stubCreator
	sessions *session.Manager
}

func newFixture() *fixture {
	f := &fixture{
		catalog: &stubCatalog{products: map[int64]catalog.Product{
			1: product(1, "Yerba", "80"),
			2: product(2, "Azúcar", "50"),
		}},
		site:     &stubSite{cfg: site.Config{WhatsAppPhone: "+5491100000000", ShippingCost: d("500")}},
		coupons:  &stubValidator{},
		creator:  &stubCreator{},
		sessions: session.NewManager(noopStore{}, zap.NewNop()),
	}

	svc := order.NewService(f.creator, whatsapp.NewBuilder("Naranja Shop", "Av. Siempreviva 742", whatsapp.Transfer{}))
	h := New(f.sessions, f.catalog, f.site, f.coupons, svc)

	f.mux = http.NewServeMux()
	h.Register(f.mux)
	return f
}

// client carries the session cookie across requests like a browser would.
type client struct {
	t      *testing.T
	mux    *http.ServeMux
	cookie *http.Cookie
}

func (f *fixture) client(t *testing.T) *client {
	return &client{t: t, mux: f.mux}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.mux.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// --- Cart endpoints ---

func TestGetCart_EmptyByDefault(t *testing.T) {
	c := newFixture().client(t)

	rec := c.do("GET", "/api/cart", nil)
	require.Equal(t, 200, rec.Code)

	view := decode[cartView](t, rec)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.Count)
	assert.True(t, view.Subtotal.IsZero())
	assert.NotNil(t, c.cookie, "a session cookie is minted on first contact")
}

func TestAddCartItem_FetchesCatalogSnapshot(t *testing.T) {
	c := newFixture().client(t)

	rec := c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 2})
	require.Equal(t, 200, rec.Code)

	view := decode[cartView](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Yerba", view.Items[0].Product.Name)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.True(t, view.Subtotal.Equal(d("160")))
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	c := newFixture().client(t)

	rec := c.do("POST", "/api/cart/items", map[string]any{"product_id": 99})
	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "Producto no encontrado", decode[errorResponse](t, rec).Error)
}

func TestCart_SurvivesAcrossRequests(t *testing.T) {
	c := newFixture().client(t)

	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 2, "quantity": 3})

	view := decode[cartView](t, c.do("GET", "/api/cart", nil))
	require.Len(t, view.Items, 2)
	assert.Equal(t, 4, view.Count)
	assert.True(t, view.Subtotal.Equal(d("230")))
}

func TestSetCartItemQuantity_ZeroRemoves(t *testing.T) {
	c := newFixture().client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 2})

	view := decode[cartView](t, c.do("PUT", "/api/cart/items/1", map[string]any{"quantity": 0}))
	assert.Empty(t, view.Items)
}

func TestRemoveAndClear(t *testing.T) {
	c := newFixture().client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 2, "quantity": 1})

	view := decode[cartView](t, c.do("DELETE", "/api/cart/items/1", nil))
	require.Len(t, view.Items, 1)
	assert.EqualValues(t, 2, view.Items[0].Product.ID)

	view = decode[cartView](t, c.do("DELETE", "/api/cart", nil))
	assert.Empty(t, view.Items)
}

// --- Coupon endpoint ---

func TestApplyCoupon_Applied(t *testing.T) {
	f := newFixture()
	f.coupons.info = &coupon.Info{Valid: true, Type: coupon.TypePercent, Percent: d("10")}
	c := f.client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	state := decode[session.CouponState](t, c.do("POST", "/api/coupon", map[string]any{"code": "PROMO10"}))
	assert.False(t, state.Failed)
	assert.Equal(t, "Cupón aplicado", state.Message)
	require.NotNil(t, state.Info)
	assert.True(t, state.Info.Percent.Equal(d("10")))
}

func TestApplyCoupon_Invalid(t *testing.T) {
	f := newFixture()
	f.coupons.info = &coupon.Info{Valid: false}
	c := f.client(t)

	state := decode[session.CouponState](t, c.do("POST", "/api/coupon", map[string]any{"code": "NADA"}))
	assert.True(t, state.Failed)
	assert.Equal(t, "Cupón inválido", state.Message)
}

func TestApplyCoupon_BelowMinimumKeepsInfo(t *testing.T) {
	f := newFixture()
	f.coupons.info = &coupon.Info{Valid: true, Type: coupon.TypeFixed, Amount: d("100"), MinSubtotal: d("5000")}
	c := f.client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	state := decode[session.CouponState](t, c.do("POST", "/api/coupon", map[string]any{"code": "GRANDE"}))
	assert.True(t, state.Failed)
	assert.Equal(t, "Monto mínimo: $ 5.000,00", state.Message)
	assert.NotNil(t, state.Info, "info is kept so the coupon activates when the cart grows")
}

func TestApplyCoupon_UpstreamFailure(t *testing.T) {
	f := newFixture()
	f.coupons.err = &shopapi.APIError{StatusCode: 500, Message: "boom"}
	c := f.client(t)

	rec := c.do("POST", "/api/coupon", map[string]any{"code": "X"})
	require.Equal(t, 200, rec.Code, "coupon failures are inline state, not errors")

	state := decode[session.CouponState](t, rec)
	assert.True(t, state.Failed)
	assert.Equal(t, "No se pudo validar el cupón", state.Message)
}

func TestApplyCoupon_EmptyCodeResets(t *testing.T) {
	f := newFixture()
	f.coupons.info = &coupon.Info{Valid: true, Type: coupon.TypeFixed, Amount: d("10")}
	c := f.client(t)
	c.do("POST", "/api/coupon", map[string]any{"code": "ALGO"})

	state := decode[session.CouponState](t, c.do("POST", "/api/coupon", map[string]any{"code": "  "}))
	assert.Empty(t, state.Code)
	assert.Nil(t, state.Info)
}

// --- Quote endpoint ---

func TestGetQuote_AppliesCouponAndShipping(t *testing.T) {
	f := newFixture()
	f.coupons.info = &coupon.Info{Valid: true, Type: coupon.TypePercent, Percent: d("10")}
	c := f.client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 5}) // 400
	c.do("POST", "/api/coupon", map[string]any{"code": "PROMO10"})

	b := decode[pricing.Breakdown](t, c.do("GET", "/api/quote?delivery=delivery", nil))
	assert.True(t, b.Subtotal.Equal(d("400")))
	assert.True(t, b.Discount.Equal(d("40")))
	assert.True(t, b.Shipping.Equal(d("500")))
	assert.True(t, b.Total.Equal(d("860")))
}

func TestGetQuote_PickupWaivesShipping(t *testing.T) {
	c := newFixture().client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	b := decode[pricing.Breakdown](t, c.do("GET", "/api/quote?delivery=pickup", nil))
	assert.True(t, b.Shipping.IsZero())
}

func TestGetQuote_InvalidMethod(t *testing.T) {
	c := newFixture().client(t)
	assert.Equal(t, 400, c.do("GET", "/api/quote?delivery=teleport", nil).Code)
}

// --- Checkout endpoint ---

func validDraft() map[string]any {
	return map[string]any{
		"name":            "Ana",
		"phone":           "1133112233",
		"address":         "Calle Falsa 123",
		"payment_method":  "cash",
		"delivery_method": "delivery",
	}
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture()
	f.creator.order = &order.Order{
		ID:             7,
		Total:          d("580"),
		ShippingCost:   d("500"),
		Name:           "Ana",
		Phone:          "1133112233",
		Address:        "Calle Falsa 123",
		PaymentMethod:  order.PaymentCash,
		DeliveryMethod: pricing.Delivery,
	}
	c := f.client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	rec := c.do("POST", "/api/checkout", validDraft())
	require.Equal(t, 201, rec.Code, rec.Body.String())

	resp := decode[checkoutResponse](t, rec)
	assert.EqualValues(t, 7, resp.Order.ID)
	assert.True(t, resp.Order.Total.Equal(d("580")), "total is the server's, not the estimate")
	assert.True(t, strings.HasPrefix(resp.WhatsAppLink, "https://wa.me/"))

	// Only ids and quantities went upstream.
	require.Len(t, f.creator.draft.Items, 1)
	assert.EqualValues(t, 1, f.creator.draft.Items[0].ProductID)

	view := decode[cartView](t, c.do("GET", "/api/cart", nil))
	assert.Empty(t, view.Items, "cart is cleared after a successful order")
}

func TestCheckout_EmptyCart(t *testing.T) {
	c := newFixture().client(t)

	rec := c.do("POST", "/api/checkout", validDraft())
	assert.Equal(t, 422, rec.Code)
	assert.Equal(t, "El carrito está vacío", decode[errorResponse](t, rec).Error)
}

func TestCheckout_InvalidDraftListsFields(t *testing.T) {
	c := newFixture().client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	draft := validDraft()
	delete(draft, "name")
	rec := c.do("POST", "/api/checkout", draft)
	assert.Equal(t, 422, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "Revisá los datos del pedido", resp.Error)
	assert.Contains(t, resp.Fields, "Name")
}

func TestCheckout_UpstreamErrorKeepsCart(t *testing.T) {
	f := newFixture()
	f.creator.err = &shopapi.APIError{StatusCode: 400, Message: "stock: Sin stock de Yerba"}
	c := f.client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	rec := c.do("POST", "/api/checkout", validDraft())
	assert.Equal(t, 502, rec.Code)
	assert.Equal(t, "stock: Sin stock de Yerba", decode[errorResponse](t, rec).Error)

	view := decode[cartView](t, c.do("GET", "/api/cart", nil))
	assert.Len(t, view.Items, 1, "cart is untouched on failure")
}

// --- Catalog proxies ---

func TestCatalogFailure_StaysPanelLocal(t *testing.T) {
	f := newFixture()
	c := f.client(t)
	c.do("POST", "/api/cart/items", map[string]any{"product_id": 1, "quantity": 1})

	f.catalog.err = assert.AnError
	assert.Equal(t, 502, c.do("GET", "/api/catalog/products", nil).Code)
	assert.Equal(t, 502, c.do("GET", "/api/catalog/categories", nil).Code)
	assert.Equal(t, 502, c.do("GET", "/api/announcements", nil).Code)

	// The cart surface keeps serving from session state.
	rec := c.do("GET", "/api/cart", nil)
	require.Equal(t, 200, rec.Code)
	assert.Len(t, decode[cartView](t, rec).Items, 1)
}
