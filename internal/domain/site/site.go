// Package site holds the store-wide configuration served by the shop API.
package site

import (
	"context"

	"github.com/shopspring/decimal"
)

// Config is the remotely managed store configuration. ShippingCost is the
// flat delivery fee before any coupon or pickup waiver applies.
type Config struct {
	WhatsAppPhone string          `json:"whatsapp_phone"`
	AliasOrCBU    string          `json:"alias_or_cbu"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
}

// Provider fetches the current store configuration.
type Provider interface {
	SiteConfig(ctx context.Context) (*Config, error)
}
