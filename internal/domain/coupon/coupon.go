package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the coupon kinds the shop API can grant.
type Type string

const (
	// TypeFixed subtracts a fixed amount from the subtotal.
	TypeFixed Type = "fixed"
	// TypePercent subtracts a percentage of the subtotal, optionally capped.
	TypePercent Type = "percent"
	// TypeFreeShipping waives the delivery fee and grants no direct discount.
	TypeFreeShipping Type = "free_shipping"
)

// ErrInvalid is returned by validators when the shop API rejects a code.
var ErrInvalid = errors.New("invalid coupon code")

// Info is the retained result of a remote coupon validation. Only these six
// fields of the upstream response are kept; anything else is discarded.
type Info struct {
	Valid       bool            `json:"valid"`
	Type        Type            `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Percent     decimal.Decimal `json:"percent"`
	PercentCap  decimal.Decimal `json:"percent_cap"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
}

// EligibleFor reports whether the coupon applies to a cart with the given
// subtotal. An ineligible coupon is inert, never an error: the zero effect is
// an expected steady state while a user is still typing or below the floor.
func (i *Info) EligibleFor(subtotal decimal.Decimal) bool {
	return i != nil && i.Valid && subtotal.GreaterThanOrEqual(i.MinSubtotal)
}

// Validator resolves a coupon code against the shop API.
type Validator interface {
	ValidateCoupon(ctx context.Context, code string) (*Info, error)
}
