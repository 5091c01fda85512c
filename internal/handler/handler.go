// Package handler exposes the gateway HTTP surface: session carts, coupon
// application, pricing quotes, checkout, and thin catalog proxies.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/naranjashop/storefront/internal/domain/catalog"
	"github.com/naranjashop/storefront/internal/domain/coupon"
	"github.com/naranjashop/storefront/internal/domain/order"
	"github.com/naranjashop/storefront/internal/domain/site"
	"github.com/naranjashop/storefront/internal/session"
)

// SessionCookie carries the opaque session identifier between requests.
// Clients that cannot use cookies may send the same value in the
// X-Session-ID header instead.
const SessionCookie = "storefront_session"

const sessionHeader = "X-Session-ID"

// Handler serves the storefront gateway API. All upstream access goes
// through the injected domain interfaces.
type Handler struct {
	sessions *session.Manager
	catalog  catalog.Source
	site     site.Provider
	coupons  coupon.Validator
	checkout *order.Service
}

// New constructs a Handler with the required dependencies.
func New(
	sessions *session.Manager,
	source catalog.Source,
	sites site.Provider,
	coupons coupon.Validator,
	checkout *order.Service,
) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  source,
		site:     sites,
		coupons:  coupons,
		checkout: checkout,
	}
}

// Register attaches all gateway routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.SetCartItemQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
	mux.HandleFunc("POST /api/coupon", h.ApplyCoupon)
	mux.HandleFunc("GET /api/quote", h.GetQuote)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/catalog/products", h.ListProducts)
	mux.HandleFunc("GET /api/catalog/categories", h.ListCategories)
	mux.HandleFunc("GET /api/announcements", h.ListAnnouncements)
}

// session resolves the request's session, minting a fresh ID and setting the
// cookie when the client arrives without one.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
	}
	if id == "" || !usableSessionID(id) {
		id = h.sessions.NewID()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   60 * 60 * 24 * 30,
		})
	}
	return h.sessions.Get(id)
}

// usableSessionID rejects values that cannot serve as a file-backed session
// key. The storage layer enforces the same shape.
func usableSessionID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// logUpstreamFailure records an upstream error without leaking it to the
// client; callers respond with a panel-local message.
func logUpstreamFailure(r *http.Request, what string, err error) {
	zctx.From(r.Context()).Warn("Upstream request failed",
		zap.String("what", what),
		zap.Error(err),
	)
}
