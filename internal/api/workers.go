package api

import (
	"context"
	"log/slog"

	"ShopFulfillment/config"
	"ShopFulfillment/internal/api/consumers"
	"ShopFulfillment/internal/api/domain/payment"
	"ShopFulfillment/internal/api/external/kafka"
	"ShopFulfillment/internal/api/messaging"
)

// PaymentWorkers consumes queued payment confirmations in kafka mode.
type PaymentWorkers struct {
	done chan struct{}
}

// StartPaymentWorkers runs the payments consumer until ctx is cancelled.
// Messages go through metrics, DLQ and retry middleware before reaching processor.
func StartPaymentWorkers(ctx context.Context, cfg config.Config, processor payment.Processor) *PaymentWorkers {
	dlq := kafka.NewDLQPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic, cfg.KafkaPaymentsDLQTopic)

	controller := consumers.NewPaymentMessageController(processor)
	handler := messaging.WithMetrics(
		cfg.KafkaPaymentsTopic,
		cfg.KafkaPaymentsConsumerGroup,
		messaging.WithDLQ(
			messaging.WithRetry(controller.HandleMessage, messaging.DefaultRetryConfig()),
			dlq,
		),
	)
	members := make([]messaging.Worker, max(cfg.KafkaPaymentsConsumers, 1))
	for i := range members {
		members[i] = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic, cfg.KafkaPaymentsConsumerGroup)
	}
	runner := messaging.NewRunner(handler, members...)

	w := &PaymentWorkers{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		defer func() {
			if err := dlq.Close(); err != nil {
				slog.Error("Failed to close DLQ publisher", slog.Any("error", err))
			}
		}()

		slog.Info("Starting payment consumers",
			"topic", cfg.KafkaPaymentsTopic,
			"group", cfg.KafkaPaymentsConsumerGroup,
			"members", len(members))
		if err := runner.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Payment runner failed", slog.Any("error", err))
		}
	}()
	return w
}

// Wait blocks until the consumer has stopped and released its connections.
func (w *PaymentWorkers) Wait() {
	<-w.done
}
