package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naranjashop/storefront/internal/domain/order"
	"github.com/naranjashop/storefront/internal/domain/site"
	"github.com/naranjashop/storefront/internal/handler"
	"github.com/naranjashop/storefront/internal/session"
	"github.com/naranjashop/storefront/internal/shopapi"
	"github.com/naranjashop/storefront/internal/storage/sessionfile"
	"github.com/naranjashop/storefront/internal/whatsapp"
	"github.com/naranjashop/storefront/pkg/health"
	"github.com/naranjashop/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the gateway.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("shop_api", cfg.ShopAPIURL),
	)

	// Remote shop API client: the single upstream for catalog, site config,
	// coupon validation and order creation.
	shop := shopapi.NewClient(cfg.ShopAPIURL)
	sites := site.NewCachedProvider(shop, cfg.SiteCache.TTL)

	// Session cart spool.
	store, err := sessionfile.New(cfg.SessionDir)
	if err != nil {
		return errors.Wrap(err, "open session store")
	}
	sessions := session.NewManager(store, lg.Named("session"))
	if err := sessions.Restore(ctx); err != nil {
		return errors.Wrap(err, "restore sessions")
	}

	// Warm-up: prime the site config cache and verify the upstream is
	// reachable before accepting traffic. Catalog failures stay non-fatal,
	// those panels degrade per request.
	warm, warmCtx := errgroup.WithContext(ctx)
	warm.Go(func() error {
		_, err := sites.SiteConfig(warmCtx)
		return errors.Wrap(err, "site config")
	})
	warm.Go(func() error {
		if _, err := shop.Categories(warmCtx); err != nil {
			lg.Warn("Category warm-up failed", zap.Error(err))
		}
		return nil
	})
	warm.Go(func() error {
		if _, err := shop.Announcements(warmCtx); err != nil {
			lg.Warn("Announcement warm-up failed", zap.Error(err))
		}
		return nil
	})
	if err := warm.Wait(); err != nil {
		return errors.Wrap(err, "warm up")
	}

	// Health check service. Readiness follows shop API reachability.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("shop-api", 5*time.Second, func(ctx context.Context) error {
		_, err := shop.SiteConfig(ctx)
		return err
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	messages := whatsapp.NewBuilder(cfg.Store.Name, cfg.Store.Address, whatsapp.Transfer{
		Alias:  cfg.Transfer.Alias,
		Holder: cfg.Transfer.Holder,
		CUIT:   cfg.Transfer.CUIT,
		Entity: cfg.Transfer.Entity,
	})
	checkout := order.NewService(shop, messages)

	// HTTP surface.
	h := handler.New(sessions, shop, sites, shop, checkout)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	instrument, err := httpmiddleware.Instrument("storefront", m.MeterProvider().Meter("storefront"))
	if err != nil {
		return errors.Wrap(err, "create instrumentation")
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Session-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			instrument,
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
