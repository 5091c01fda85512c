package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/naranjashop/storefront/internal/domain/order"
	"github.com/naranjashop/storefront/internal/domain/pricing"
	"github.com/naranjashop/storefront/internal/shopapi"
)

// GetQuote prices the current cart for the requested delivery method.
// The breakdown is a preview; authoritative totals come back with the order.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	method := pricing.DeliveryMethod(r.URL.Query().Get("delivery"))
	if method == "" {
		method = pricing.Delivery
	}
	if !method.Valid() {
		respondError(w, http.StatusBadRequest, "invalid delivery method")
		return
	}

	cfg, err := h.site.SiteConfig(r.Context())
	if err != nil {
		logUpstreamFailure(r, "site config", err)
		respondError(w, http.StatusBadGateway, "No se pudo cargar la configuración")
		return
	}

	s := h.session(w, r)
	st := s.Coupon()
	respondJSON(w, http.StatusOK, pricing.Quote(s.Cart.Items(), st.Info, method, *cfg))
}

type checkoutResponse struct {
	Order        *order.Order      `json:"order"`
	Estimate     pricing.Breakdown `json:"estimate"`
	Message      string            `json:"message"`
	WhatsAppLink string            `json:"whatsapp_link"`
}

// Checkout submits the session's cart as an order. The draft carries only
// customer fields; items and coupon code come from session state.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var draft order.Draft
	if !decodeBody(w, r, &draft) {
		return
	}

	cfg, err := h.site.SiteConfig(r.Context())
	if err != nil {
		logUpstreamFailure(r, "site config", err)
		respondError(w, http.StatusBadGateway, "No se pudo cargar la configuración")
		return
	}

	s := h.session(w, r)
	st := s.Coupon()
	draft.CouponCode = st.Code

	conf, err := h.checkout.Checkout(r.Context(), s.Cart, draft, st.Info, *cfg)
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	// The service cleared the cart; drop its spool file and coupon state.
	h.sessions.Persist(r.Context(), s)
	s.ResetCoupon()

	respondJSON(w, http.StatusCreated, checkoutResponse{
		Order:        conf.Order,
		Estimate:     conf.Estimate,
		Message:      conf.Message,
		WhatsAppLink: conf.WhatsAppLink,
	})
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, order.ErrEmptyCart) {
		respondError(w, http.StatusUnprocessableEntity, "El carrito está vacío")
		return
	}

	var invalid *order.InvalidDraftError
	if errors.As(err, &invalid) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "Revisá los datos del pedido",
			Fields: invalid.Fields,
		})
		return
	}

	var apiErr *shopapi.APIError
	if errors.As(err, &apiErr) {
		logUpstreamFailure(r, "order", err)
		respondError(w, http.StatusBadGateway, apiErr.Message)
		return
	}

	logUpstreamFailure(r, "order", err)
	respondError(w, http.StatusBadGateway, "No se pudo crear el pedido")
}
