package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/menu"
	"github.com/xenking/stall-orders/internal/handler"
	"github.com/xenking/stall-orders/internal/storage/snapshot"
	"github.com/xenking/stall-orders/pkg/health"
	"github.com/xenking/stall-orders/pkg/httpmiddleware"
)

// Telemetry provides tracing and metrics; *app.Telemetry from go-faster/sdk
// satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	slot, err := OpenSlot(ctx, lg, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := slot.Close(); err != nil {
			lg.Warn("Close slot", zap.Error(err))
		}
	}()

	store, err := customer.Open(ctx, snapshot.NewRepository(slot),
		customer.WithNamePrefix(cfg.NamePrefix),
		customer.WithLogger(lg.Named("store")),
		customer.WithTracerProvider(m.TracerProvider()),
		customer.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "open store")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("slot", 5*time.Second, slot.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(store, menu.Default()).Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHTTPHandler(mux, lg, m, cfg),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gCtx.Done()
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
		return nil
	})
	return g.Wait()
}

// newHTTPHandler wraps mux with the middleware chain. RequestID and
// InjectLogger run outside Recovery so recovered panics are logged with the
// request logger.
func newHTTPHandler(mux http.Handler, lg *zap.Logger, m Telemetry, cfg *Config) http.Handler {
	return httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins: cfg.CORS.Origins,
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       86400,
		}),
		httpmiddleware.Instrument("stall-api", m.TracerProvider(), m.MeterProvider()),
		httpmiddleware.LogRequests(),
	)
}
