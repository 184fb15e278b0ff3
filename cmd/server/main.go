package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	ledgerapp "github.com/marketplace/backend/internal/application/ledger"
	orderapp "github.com/marketplace/backend/internal/application/ordering"
	paymentapp "github.com/marketplace/backend/internal/application/payment"
	"github.com/marketplace/backend/internal/domain/ledger"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/gateway"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/notification"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting marketplace server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing when enabled
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	// Connect to the database with a GORM log level matching the app log level
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	webhookEventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	ledgerRepo := persistence.NewGormFinancialRecordRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Payment gateway adapter
	acme, err := gateway.NewAcmeAdapter(&gateway.AcmeConfig{
		BaseURL:            cfg.Gateway.BaseURL,
		APIKey:             cfg.Gateway.APIKey,
		WebhookSecret:      cfg.Webhook.Secret,
		Timeout:            cfg.Gateway.Timeout,
		SignatureTolerance: cfg.Webhook.Tolerance,
	})
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Webhook fast-path dedup store in front of the transactional event table
	idempotencyStore := buildIdempotencyStore(cfg, log)

	// Platform fee schedule
	fees, err := ledger.NewFeeSchedule(
		decimal.NewFromFloat(cfg.Ledger.FeeRate),
		decimal.NewFromFloat(cfg.Ledger.ProcessingFeeRate),
	)
	if err != nil {
		log.Fatal("Invalid ledger fee rate", zap.Error(err), zap.Float64("fee_rate", cfg.Ledger.FeeRate))
	}

	notifier := notification.NewLogNotifier(log)

	// Application services
	checkoutService := orderapp.NewCheckoutService(orderRepo, stockRepo, uow, notifier, orderapp.CheckoutPricing{
		TaxRate:      cfg.Checkout.TaxRate,
		FlatShipping: cfg.Checkout.FlatShipping,
		FreeShipOver: cfg.Checkout.FreeShipOver,
		Currency:     valueobject.Currency(cfg.Checkout.Currency),
	}, log)
	orderService := orderapp.NewOrderService(orderRepo, uow)
	intentService := paymentapp.NewIntentService(paymentRepo, orderRepo, acme, uow, log)
	postingService := ledgerapp.NewPostingService(ledgerRepo, fees, log)
	webhookService := paymentapp.NewWebhookService(
		acme, paymentRepo, orderRepo, webhookEventRepo, postingService, uow,
		idempotencyStore,
		shared.IdempotencyConfig{TTL: cfg.Webhook.DedupTTL, Enabled: true},
		log,
	)
	payoutService := ledgerapp.NewPayoutService(ledgerRepo, uow, cfg.Ledger.ClearingPeriod, log)

	// Handlers
	orderHandler := handler.NewOrderHandler(checkoutService, orderService)
	paymentHandler := handler.NewPaymentHandler(intentService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	payoutHandler := handler.NewPayoutHandler(payoutService)
	systemHandler := handler.NewSystemHandler()

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			Enabled:     true,
			ServiceName: cfg.Telemetry.ServiceName,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.GET("/health", healthHandler(db, log))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(orderHandler).
		Register(paymentHandler).
		Register(webhookHandler).
		Register(payoutHandler).
		Register(systemHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Background clearing: promote PENDING ledger records whose clearing
	// period has elapsed so sellers can be paid out
	clearingCtx, stopClearing := context.WithCancel(context.Background())
	defer stopClearing()
	go runClearingLoop(clearingCtx, payoutService, log)

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	stopClearing()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
	log.Info("Server stopped")
}

// buildIdempotencyStore returns the webhook dedup store. Redis when
// reachable, in-memory otherwise so single-instance deployments work
// without extra infrastructure.
func buildIdempotencyStore(cfg *config.Config, log *zap.Logger) shared.IdempotencyStore {
	store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory webhook dedup store", zap.Error(err))
		return cache.NewInMemoryIdempotencyStore()
	}
	log.Info("Redis webhook dedup store connected", zap.String("addr", cfg.Redis.Addr()))
	return store
}

// runClearingLoop periodically clears due ledger records. The interval is
// coarse; clearing is idempotent and cheap when nothing is due.
func runClearingLoop(ctx context.Context, payouts *ledgerapp.PayoutService, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleared, err := payouts.ClearDue(ctx)
			if err != nil {
				log.Error("Ledger clearing run failed", zap.Error(err))
				continue
			}
			if cleared > 0 {
				log.Info("Ledger records cleared", zap.Int("count", cleared))
			}
		}
	}
}

// healthHandler reports liveness plus a database connectivity check.
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"time":   time.Now().Format(time.RFC3339),
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
