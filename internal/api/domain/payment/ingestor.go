package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ShopFulfillment/internal/api/domain/order"
	"ShopFulfillment/pkg/metrics"
)

// Ingestor verifies inbound payment webhooks and forwards actionable ones.
type Ingestor struct {
	verifier  Verifier
	processor Processor
}

func NewIngestor(verifier Verifier, processor Processor) *Ingestor {
	return &Ingestor{
		verifier:  verifier,
		processor: processor,
	}
}

// HandleEvent returns ErrSignatureInvalid or ErrMalformedEvent for rejected
// deliveries. Everything the provider should not redeliver is acknowledged,
// including duplicates and events that are not actionable.
func (i *Ingestor) HandleEvent(ctx context.Context, rawBody []byte, signatureHeader string) (Ack, error) {
	event, err := i.verifier.Verify(rawBody, signatureHeader)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		slog.WarnContext(ctx, "Payment webhook rejected", slog.Any("error", err))
		if errors.Is(err, ErrMalformedEvent) {
			return Ack{}, err
		}
		return Ack{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	ack := Ack{EventID: event.ID, Status: AckIgnored}

	if !event.IsPaymentSuccess() {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		slog.DebugContext(ctx, "Payment webhook ignored",
			"event_id", event.ID,
			"event_type", event.Type)
		return ack, nil
	}

	if event.OrderID() == "" || event.Email() == "" {
		metrics.WebhookEvents.WithLabelValues("missing_metadata").Inc()
		slog.WarnContext(ctx, "Payment webhook without order metadata acknowledged",
			"event_id", event.ID,
			"event_type", event.Type,
			"has_order_id", event.OrderID() != "",
			"has_email", event.Email() != "")
		return ack, nil
	}

	status, err := i.processor.ProcessPayment(ctx, event.Confirmation())
	if err != nil {
		if errors.Is(err, order.ErrReconciliationRequired) {
			metrics.WebhookEvents.WithLabelValues("reconciliation_required").Inc()
			return Ack{EventID: event.ID, Status: AckReconciliationRequired}, nil
		}
		metrics.WebhookEvents.WithLabelValues("failed").Inc()
		return Ack{}, fmt.Errorf("process payment %s: %w", event.ID, err)
	}

	metrics.WebhookEvents.WithLabelValues(string(status)).Inc()
	ack.Status = status
	return ack, nil
}
