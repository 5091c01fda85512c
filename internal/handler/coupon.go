package handler

import (
	"net/http"
	"strings"

	"github.com/naranjashop/storefront/internal/session"
	"github.com/naranjashop/storefront/internal/whatsapp"
)

// ApplyCoupon validates a coupon code upstream and stashes the outcome on
// the session. Prior state is cleared before validating so a superseded
// code never lingers. Failures are inline state, never an error status: the
// checkout stays fully usable with the coupon simply contributing nothing.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s := h.session(w, r)
	s.ResetCoupon()

	code := strings.TrimSpace(req.Code)
	if code == "" {
		respondJSON(w, http.StatusOK, s.Coupon())
		return
	}

	info, err := h.coupons.ValidateCoupon(r.Context(), code)
	if err != nil {
		logUpstreamFailure(r, "coupon", err)
		s.SetCoupon(session.CouponState{
			Code:    code,
			Message: "No se pudo validar el cupón",
			Failed:  true,
		})
		respondJSON(w, http.StatusOK, s.Coupon())
		return
	}

	state := session.CouponState{Code: code, Info: info}
	subtotal := s.Cart.Subtotal()
	switch {
	case !info.Valid:
		state.Failed = true
		state.Message = "Cupón inválido"
	case subtotal.LessThan(info.MinSubtotal):
		// The info is kept: the coupon activates on its own once the
		// cart grows past the threshold.
		state.Failed = true
		state.Message = "Monto mínimo: " + whatsapp.FormatARS(info.MinSubtotal)
	default:
		state.Message = "Cupón aplicado"
	}

	s.SetCoupon(state)
	respondJSON(w, http.StatusOK, s.Coupon())
}
