// Package pricing computes the checkout price breakdown. The engine is a
// pure function of its inputs and keeps no state: consumers recompute on
// every change of cart, coupon, delivery method or store config instead of
// caching a total that could go stale.
package pricing

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/naranjashop/storefront/internal/domain/cart"
	"github.com/naranjashop/storefront/internal/domain/coupon"
	"github.com/naranjashop/storefront/internal/domain/site"
)

// DeliveryMethod selects how the order reaches the customer.
type DeliveryMethod string

const (
	// Delivery ships the order to the customer's address.
	Delivery DeliveryMethod = "delivery"
	// Pickup means the customer collects at the store; shipping is always zero.
	Pickup DeliveryMethod = "pickup"
)

// Valid reports whether m is one of the known delivery methods.
func (m DeliveryMethod) Valid() bool {
	return m == Delivery || m == Pickup
}

// maxLabelLen caps savings line labels; longer product names are cut to
// truncateAt runes plus an ellipsis.
const (
	maxLabelLen = 34
	truncateAt  = 31
)

var hundred = decimal.NewFromInt(100)

// Line is one itemized row of the breakdown explaining a source of savings:
// a promotional price, the coupon, or a waived delivery fee.
type Line struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Breakdown is the full client-side price estimate. It is a preview only:
// authoritative totals are recomputed server-side at order creation.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Savings  []Line          `json:"savings_lines"`
}

// Quote derives the price breakdown for the given cart snapshot.
//
// An ineligible coupon (nil, invalid, or subtotal below its minimum) is
// silently inert for every step: no discount, no shipping waiver. Savings
// lines are emitted in a fixed order consumers rely on: product promo lines
// in cart order, then the coupon line, then the shipping waiver line.
func Quote(items []cart.Item, info *coupon.Info, method DeliveryMethod, cfg site.Config) Breakdown {
	subtotal := cart.Subtotal(items)
	eligible := info.EligibleFor(subtotal)

	shipping := effectiveShipping(eligible, info, method, cfg)
	discount := discountAmount(eligible, info, subtotal)

	total := subtotal.Sub(discount).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	b := Breakdown{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Shipping: shipping.Round(2),
		Total:    total.Round(2),
	}
	b.Savings = savingsLines(items, eligible, info, discount, method, cfg)
	return b
}

// effectiveShipping applies the pickup and free-shipping rules, in that
// order: pickup always zeroes shipping regardless of any coupon.
func effectiveShipping(eligible bool, info *coupon.Info, method DeliveryMethod, cfg site.Config) decimal.Decimal {
	if method == Pickup {
		return decimal.Zero
	}
	if eligible && info.Type == coupon.TypeFreeShipping {
		return decimal.Zero
	}
	return cfg.ShippingCost
}

// discountAmount computes the coupon's direct discount. Free-shipping coupons
// grant no direct discount; their effect lives entirely in the shipping step.
func discountAmount(eligible bool, info *coupon.Info, subtotal decimal.Decimal) decimal.Decimal {
	if !eligible {
		return decimal.Zero
	}

	switch info.Type {
	case coupon.TypeFixed:
		// Never discount below a zero net.
		return decimal.Min(info.Amount, subtotal)
	case coupon.TypePercent:
		raw := subtotal.Mul(info.Percent).Div(hundred)
		if info.PercentCap.IsPositive() {
			return decimal.Min(raw, info.PercentCap)
		}
		return raw
	default:
		return decimal.Zero
	}
}

// savingsLines itemizes every source of reduction, preserving the fixed
// ordering: promo prices first, coupon next, waived shipping last.
func savingsLines(items []cart.Item, eligible bool, info *coupon.Info, discount decimal.Decimal, method DeliveryMethod, cfg site.Config) []Line {
	var lines []Line

	for _, it := range items {
		saving := it.Product.OfferSaving().Mul(decimal.NewFromInt(int64(it.Quantity)))
		if saving.IsPositive() {
			lines = append(lines, Line{
				Label:  truncateLabel(it.Product.Name),
				Amount: saving.Round(2),
			})
		}
	}

	if discount.IsPositive() {
		label := "Cupón"
		if info.Type == coupon.TypePercent {
			label = fmt.Sprintf("%s%% OFF", info.Percent)
		}
		lines = append(lines, Line{Label: label, Amount: discount.Round(2)})
	}

	// A pickup order never shows a free-shipping saving: shipping was
	// already zero before the coupon.
	if eligible && info.Type == coupon.TypeFreeShipping &&
		method == Delivery && cfg.ShippingCost.IsPositive() {
		lines = append(lines, Line{Label: "Cupón: Envío gratis", Amount: cfg.ShippingCost.Round(2)})
	}

	return lines
}

// truncateLabel cuts a product name to the label budget, appending an
// ellipsis when it overflows. Counted in runes, not bytes.
func truncateLabel(name string) string {
	if utf8.RuneCountInString(name) <= maxLabelLen {
		return name
	}
	runes := []rune(name)
	return string(runes[:truncateAt]) + "…"
}
