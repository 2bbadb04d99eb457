package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/saeedNW/snappfood-go/internal/api"
	"github.com/saeedNW/snappfood-go/internal/domain/basket"
	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/order"
	"github.com/saeedNW/snappfood-go/internal/domain/payment"
	"github.com/saeedNW/snappfood-go/internal/events"
	"github.com/saeedNW/snappfood-go/internal/gateway/zarinpal"
	"github.com/saeedNW/snappfood-go/internal/repository"
	"github.com/saeedNW/snappfood-go/pkg/health"
	"github.com/saeedNW/snappfood-go/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Register("postgres", 10*time.Second, 5*time.Second, health.PingCheck(pool))
	healthSvc.Register("goroutines", 10*time.Second, time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start()
	healthSvc.SetReady(true)

	// Repositories.
	foodRepo := repository.NewFoodRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	basketRepo := repository.NewBasketRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	addressRepo := repository.NewAddressRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	// Payment gateway client.
	gateway := zarinpal.New(zarinpal.Config{
		MerchantID:  cfg.Gateway.MerchantID,
		RequestURL:  cfg.Gateway.RequestURL,
		VerifyURL:   cfg.Gateway.VerifyURL,
		PayURL:      cfg.Gateway.PayURL,
		CallbackURL: cfg.Gateway.CallbackURL,
		Timeout:     cfg.Gateway.Timeout,
	})

	// Optional order event publishing.
	var eventPublisher payment.EventPublisher
	if cfg.Kafka.Enabled {
		kp := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kp.Close(); err != nil {
				lg.Warn("Close event publisher", zap.Error(err))
			}
		}()
		eventPublisher = kp
		lg.Info("Order event publishing enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	// Domain services.
	basketSvc := basket.NewService(basketRepo, foodRepo, discountRepo)
	discountSvc := discount.NewService(discountRepo)
	orderSvc := order.NewService(orderRepo, addressRepo)
	paymentSvc := payment.NewService(basketSvc, orderSvc, paymentRepo, gateway, eventPublisher, payment.RedirectURLs{
		Success: cfg.Frontend.SuccessURL,
		Failure: cfg.Frontend.FailureURL,
	})

	// HTTP routes.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	api.NewHandler(foodRepo, basketSvc, discountSvc, paymentSvc).Register(mux)

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
				AllowedOrigins: cfg.CORS.Origins,
				AllowedMethods: httpmiddleware.DefaultCORSConfig().AllowedMethods,
				AllowedHeaders: httpmiddleware.DefaultCORSConfig().AllowedHeaders,
				MaxAge:         86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Requests:        cfg.RateLimit.Requests,
				Window:          cfg.RateLimit.Window,
				CleanupInterval: 5 * time.Minute,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
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
