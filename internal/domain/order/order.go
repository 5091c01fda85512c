package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naranjashop/storefront/internal/domain/pricing"
)

// PaymentMethod selects how the customer pays on fulfillment.
type PaymentMethod string

const (
	// PaymentCash is paid on delivery or pickup.
	PaymentCash PaymentMethod = "cash"
	// PaymentTransfer is paid by bank transfer; the confirmation message
	// carries the transfer details.
	PaymentTransfer PaymentMethod = "transfer"
)

// Item is one order line as sent to the shop API: id and quantity only.
// Prices are deliberately absent — the server recomputes all money fields.
type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Draft is the outbound order payload prior to server-side authoritative
// pricing. Address is forced empty for pickup before validation.
type Draft struct {
	Name           string                 `json:"name" validate:"required"`
	Phone          string                 `json:"phone" validate:"required"`
	Address        string                 `json:"address" validate:"required_if=DeliveryMethod delivery"`
	Notes          string                 `json:"notes"`
	PaymentMethod  PaymentMethod          `json:"payment_method" validate:"required,oneof=cash transfer"`
	DeliveryMethod pricing.DeliveryMethod `json:"delivery_method" validate:"required,oneof=delivery pickup"`
	Items          []Item                 `json:"items"`
	CouponCode     string                 `json:"coupon_code"`
}

// Order is the authoritative order object returned by the shop API after
// creation. Total and ShippingCost here override any client estimate.
type Order struct {
	ID             int64                  `json:"id"`
	Total          decimal.Decimal        `json:"total"`
	ShippingCost   decimal.Decimal        `json:"shipping_cost"`
	CreatedAt      time.Time              `json:"created_at"`
	Name           string                 `json:"name"`
	Phone          string                 `json:"phone"`
	Address        string                 `json:"address"`
	PaymentMethod  PaymentMethod          `json:"payment_method"`
	DeliveryMethod pricing.DeliveryMethod `json:"delivery_method"`
}

// Creator submits a draft to the shop API for authoritative creation.
type Creator interface {
	CreateOrder(ctx context.Context, draft Draft) (*Order, error)
}
