// Package app wires configuration, storage, services and the HTTP server.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/great-cookie/internal/domain/analytics"
	"github.com/xenking/great-cookie/internal/domain/cookie"
	"github.com/xenking/great-cookie/internal/domain/order"
	"github.com/xenking/great-cookie/internal/domain/review"
	"github.com/xenking/great-cookie/internal/handler"
	"github.com/xenking/great-cookie/internal/notify"
	"github.com/xenking/great-cookie/pkg/health"
	"github.com/xenking/great-cookie/pkg/httpmiddleware"
)

const serviceName = "bakery-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	loc, err := cfg.TimeLocation()
	if err != nil {
		return err
	}

	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	if err := Bootstrap(ctx, lg, cfg, stores); err != nil {
		return err
	}

	// Health check service.
	healthSvc := health.New()
	if stores.Pinger != nil {
		healthSvc.Add(health.Readiness, "postgres", health.PingCheck(stores.Pinger),
			health.WithTimeout(5*time.Second),
		)
	}
	healthSvc.Add(health.Liveness, "goroutines", health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Order events.
	events, closeEvents, err := newPublisher(lg, cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	// Domain services.
	orderOpts := []order.Option{
		order.WithLocation(loc),
		order.WithMeterProvider(m.MeterProvider()),
	}
	if events != nil {
		orderOpts = append(orderOpts, order.WithEvents(events))
	}
	services := handler.Services{
		Cookies:   cookie.NewService(stores.Cookies),
		Orders:    order.NewService(stores.Cookies, stores.Orders, orderOpts...),
		Reviews:   review.NewService(stores.Reviews),
		Analytics: analytics.NewService(stores.Orders, stores.Cookies, stores.Reviews, analytics.WithLocation(loc)),
	}

	// HTTP handlers. Route-aware middlewares run inside the router.
	h := handler.NewHandler(handler.Config{ImageBaseURL: cfg.ImageBaseURL, Location: loc}, services)
	securityHandler := handler.NewSecurityHandler(stores.APIKeys, []byte(cfg.APIKeyPepper))
	router := h.Router(securityHandler,
		httpmiddleware.Instrument(serviceName, handler.RoutePattern, m),
		httpmiddleware.LogRequests(handler.RoutePattern),
		httpmiddleware.Labeler(handler.RoutePattern),
		httpmiddleware.Timeout(cfg.RequestTimeout),
	)
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
				ExposeHeaders:    []string{"Content-Disposition", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip:   isProbe,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
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

// newPublisher builds the configured event sinks. It returns a nil
// publisher when none is configured.
func newPublisher(lg *zap.Logger, cfg *Config) (order.EventPublisher, func(), error) {
	var (
		sinks   notify.Multi
		closers []func()
	)
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := notify.NewKafka(lg, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create kafka publisher")
		}
		sinks = append(sinks, k)
		closers = append(closers, func() { _ = k.Close() })
	}
	if cfg.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Webhook.URL, notify.WithCurrency(cfg.Webhook.Currency)))
	}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	switch len(sinks) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	default:
		return sinks, closeAll, nil
	}
}

func isProbe(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz" || strings.HasPrefix(r.URL.Path, "/debug/")
}
