package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete gateway configuration, loadable from environment
// variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"Gateway listen address"`
	ShopAPIURL string `usage:"Base URL of the shop API (STOREFRONT_SHOP_API_URL)" flag:"shop-api-url"`
	SessionDir string `default:"./sessions" usage:"Directory for persisted session carts" flag:"session-dir"`

	Store     StoreConfig
	Transfer  TransferConfig
	SiteCache SiteCacheConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// StoreConfig names the store in outgoing order summaries.
type StoreConfig struct {
	Name    string `default:"Naranja Shop" usage:"Store display name"`
	Address string `default:"" usage:"Store street address (shown for pickup orders)"`
}

// TransferConfig holds the bank transfer details appended to order summaries
// when the customer pays by transfer.
type TransferConfig struct {
	Alias  string `default:"" usage:"Transfer alias or CBU"`
	Holder string `default:"" usage:"Account holder name"`
	CUIT   string `default:"" usage:"Account holder CUIT"`
	Entity string `default:"" usage:"Bank or wallet name"`
}

// SiteCacheConfig bounds how long the remotely managed site configuration is
// reused before re-fetching.
type SiteCacheConfig struct {
	TTL time.Duration `default:"5m" usage:"Site config cache duration" flag:"site-cache-ttl"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.ShopAPIURL == "" {
		return nil, errors.New("shop API URL is required: set STOREFRONT_SHOP_API_URL or SHOP_API_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.ShopAPIURL == "" {
		if v := os.Getenv("SHOP_API_URL"); v != "" {
			c.ShopAPIURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
