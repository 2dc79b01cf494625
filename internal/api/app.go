package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ShopFulfillment/config"
	"ShopFulfillment/internal/api/dispatch"
	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/domain/ratelimit"
	"ShopFulfillment/internal/api/domain/token"
	"ShopFulfillment/internal/api/external/kafka"
	"ShopFulfillment/internal/api/external/mailer"
	"ShopFulfillment/internal/api/external/opensearch"
	redisstore "ShopFulfillment/internal/api/external/redis"
	"ShopFulfillment/internal/api/external/stripe"
	"ShopFulfillment/internal/api/handlers"
	order_repo "ShopFulfillment/internal/api/repo/order"
	"ShopFulfillment/internal/api/repo/order_eventsink"
	token_repo "ShopFulfillment/internal/api/repo/token"
	"ShopFulfillment/internal/api/webhook"
	"ShopFulfillment/pkg/health"
	"ShopFulfillment/pkg/logger"
	"ShopFulfillment/pkg/postgres"

	"github.com/gin-gonic/gin"
)

const (
	WebhookModeSync  = "sync"
	WebhookModeKafka = "kafka"

	RateLimitBackendRedis = "redis"

	shutdownTimeout = 15 * time.Second
)

// App is the wired service: HTTP engine plus the background machinery
// that must be drained on shutdown.
type App struct {
	Engine     *gin.Engine
	Dispatcher *dispatch.Dispatcher

	workers *PaymentWorkers
	closers []func()
}

// Build wires repositories, services and handlers on top of an open pool.
// Kafka consumers start immediately in kafka mode and stop with ctx.
func Build(ctx context.Context, cfg config.Config, pool *postgres.Postgres) (*App, error) {
	app := &App{}
	checkers := []health.Checker{health.NewPostgresChecker(pool.Pool)}

	// Token store: legacy list readable in front of relational when configured
	var legacyTokens token.Store
	if cfg.LegacyTokenFile != "" {
		legacyTokens = token_repo.NewLegacyFileStore(cfg.LegacyTokenFile)
	}
	tokenService := token.NewTokenService(
		token_repo.NewChainStore(legacyTokens, token_repo.NewPgStore(pool)),
		token.WithDefaultTTL(cfg.TokenDefaultTTLMinutes),
	)

	limiterStore, closeLimiter, limiterChecker, err := newRateLimitStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	app.closers = append(app.closers, closeLimiter)
	if limiterChecker != nil {
		checkers = append(checkers, limiterChecker)
	}
	limiter := ratelimit.NewLimiter(limiterStore, cfg.RateLimitWindow, cfg.RateLimitCapacity)

	notifier := mailer.New(mailer.Config{
		BaseURL:          cfg.MailerBaseURL,
		ConfirmationPath: cfg.MailerConfirmPath,
		ShipmentPath:     cfg.MailerShipmentPath,
		Timeout:          cfg.MailerTimeout,
		RatePerSecond:    cfg.MailerRatePerSecond,
	}, nil)
	app.Dispatcher = dispatch.New(cfg.SideEffectTimeout, dispatch.WithMaxConcurrent(cfg.SideEffectConcurrency))

	orderOpts := []order.Option{
		order.WithLookupConfig(order.LookupConfig{
			Attempts:    cfg.OrderLookupAttempts,
			BaseDelay:   cfg.OrderLookupBaseDelay,
			TotalBudget: cfg.OrderLookupTotalBudget,
		}),
		order.WithPointerValidator(tokenService),
	}
	if len(cfg.OpensearchUrls) > 0 {
		mirror, err := opensearch.NewOrderEventMirror(ctx, cfg.OpensearchUrls, cfg.OpensearchIndexOrders)
		if err != nil {
			slog.Warn("OpenSearch mirror disabled", slog.Any("error", err))
		} else {
			orderOpts = append(orderOpts, order.WithEventMirror(mirror))
		}
	}

	orderService := order.NewOrderService(
		order_repo.NewPgOrderRepo(pool),
		order_eventsink.NewPgOrderEventRepo(pool.Pool, pool.Builder),
		notifier,
		tokenService,
		app.Dispatcher,
		orderOpts...,
	)

	syncProcessor := webhook.NewSyncProcessor(orderService)
	var processor payment.Processor = syncProcessor
	switch cfg.WebhookMode {
	case WebhookModeKafka:
		slog.Info("Webhook mode: kafka - confirmations are queued")
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic)
		app.closers = append(app.closers, func() {
			if err := publisher.Close(); err != nil {
				slog.Error("Failed to close kafka publisher", slog.Any("error", err))
			}
		})

		processor = webhook.NewAsyncProcessor(publisher)
		checkers = append(checkers, health.NewKafkaChecker(cfg.KafkaBrokers))
		app.workers = StartPaymentWorkers(ctx, cfg, syncProcessor)
	case WebhookModeSync:
		slog.Info("Webhook mode: sync - confirmations are applied in the request")
	default:
		app.Close()
		return nil, fmt.Errorf("unknown webhook mode %q", cfg.WebhookMode)
	}

	ingestor := payment.NewIngestor(stripe.NewVerifier(cfg.WebhookSigningSecret, cfg.WebhookTolerance), processor)

	app.Engine = NewGinEngine()
	NewRouter(
		handlers.NewOrderHandler(orderService),
		handlers.NewTokenHandler(tokenService, limiter),
		handlers.NewWebhookHandler(ingestor),
		health.NewRegistry(checkers...),
		cfg.AdminAPIKey,
	).SetUp(app.Engine)

	return app, nil
}

// Shutdown waits for the consumers and in-flight side effects, then releases clients.
// The caller cancels the Build context first so consumers can stop.
func (a *App) Shutdown(ctx context.Context) {
	if a.workers != nil {
		a.workers.Wait()
	}
	if err := a.Dispatcher.Wait(ctx); err != nil {
		slog.Warn("Side effects still running at shutdown", slog.Any("error", err))
	}
	a.Close()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func Run(cfg config.Config) error {
	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := postgres.New(cfg.PgURL, postgres.MaxPoolSize(cfg.PgPoolMax))
	if err != nil {
		return fmt.Errorf("api - Run - postgres.New: %w", err)
	}
	defer pool.Close()

	if err := ApplyMigrations(ctx, cfg.PgURL, MigrationFS); err != nil {
		return fmt.Errorf("api - Run - ApplyMigrations: %w", err)
	}

	app, err := Build(ctx, cfg, pool)
	if err != nil {
		return fmt.Errorf("api - Run - Build: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("api - Run - http server: %w", err)
	}
	cancel()

	slog.Info("Shutting down gracefully")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	app.Shutdown(shutdownCtx)
	return runErr
}

func newRateLimitStore(cfg config.Config) (ratelimit.Store, func(), health.Checker, error) {
	if cfg.RateLimitBackend != RateLimitBackendRedis {
		return ratelimit.NewMemoryStore(nil), func() {}, nil, nil
	}

	client, err := redisstore.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close redis client", slog.Any("error", err))
		}
	}
	return redisstore.NewRateLimitStore(client), closeClient, health.NewRedisChecker(client), nil
}
