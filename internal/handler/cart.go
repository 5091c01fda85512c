package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/naranjashop/storefront/internal/domain/cart"
	"github.com/naranjashop/storefront/internal/domain/catalog"
	"github.com/naranjashop/storefront/internal/session"
)

type cartItemView struct {
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartView struct {
	Items    []cartItemView  `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func viewOf(s *session.Session) cartView {
	items := s.Cart.Items()
	view := cartView{
		Items:    make([]cartItemView, len(items)),
		Count:    s.Cart.Count(),
		Subtotal: cart.Subtotal(items),
	}
	for i, it := range items {
		view.Items[i] = cartItemView{
			Product:   it.Product,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		}
	}
	return view
}

// GetCart returns the session's cart contents.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, viewOf(h.session(w, r)))
}

// AddCartItem adds a product to the cart, fetching a fresh catalog snapshot
// so prices in the cart reflect the shop at the time of adding.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	p, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Producto no encontrado")
			return
		}
		logUpstreamFailure(r, "product", err)
		respondError(w, http.StatusBadGateway, "No se pudo cargar el producto")
		return
	}

	s := h.session(w, r)
	s.Cart.Add(*p, req.Quantity)
	h.sessions.Persist(r.Context(), s)
	respondJSON(w, http.StatusOK, viewOf(s))
}

// SetCartItemQuantity replaces the quantity for one product. Zero or
// negative removes the line; unknown products are left untouched.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s := h.session(w, r)
	s.Cart.SetQuantity(id, req.Quantity)
	h.sessions.Persist(r.Context(), s)
	respondJSON(w, http.StatusOK, viewOf(s))
}

// RemoveCartItem drops one product from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	s := h.session(w, r)
	s.Cart.Remove(id)
	h.sessions.Persist(r.Context(), s)
	respondJSON(w, http.StatusOK, viewOf(s))
}

// ClearCart empties the cart. Coupon state survives; it only takes effect
// again once the subtotal clears the coupon's threshold.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.Cart.Clear()
	h.sessions.Persist(r.Context(), s)
	respondJSON(w, http.StatusOK, viewOf(s))
}
