package ingest

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
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/external/kafka"
	"ShopFulfillment/internal/api/external/stripe"
	"ShopFulfillment/internal/api/handlers"
	"ShopFulfillment/internal/api/messaging"
	"ShopFulfillment/internal/api/webhook"
	"ShopFulfillment/pkg/health"
	"ShopFulfillment/pkg/logger"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Build wires the webhook edge on top of a publisher. Every verified
// payment is queued; the api service applies it from the topic.
func Build(cfg config.IngestConfig, publisher messaging.Publisher, checkers ...health.Checker) *gin.Engine {
	ingestor := payment.NewIngestor(
		stripe.NewVerifier(cfg.WebhookSigningSecret, cfg.WebhookTolerance),
		webhook.NewAsyncProcessor(publisher),
	)

	engine := NewEngine()
	NewRouter(handlers.NewWebhookHandler(ingestor), health.NewRegistry(checkers...)).SetUp(engine)
	return engine
}

// Run bootstraps and runs the ingest service
func Run(cfg config.IngestConfig) error {
	logger.Setup(logger.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("Kafka publisher", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaPaymentsTopic))
	publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Failed to close kafka publisher", slog.Any("error", err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	engine := Build(cfg, publisher, health.NewKafkaChecker(cfg.KafkaBrokers))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Ingest service started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("ingest - Run - http server: %w", err)
	}

	slog.Info("Shutting down ingest service")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	return runErr
}
