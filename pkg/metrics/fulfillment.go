package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PaymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "payments",
			Name:      "transitions_total",
			Help:      "Payment confirmations by outcome (transitioned, duplicate, reconciliation_required)",
		},
		[]string{"outcome"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "webhooks",
			Name:      "events_total",
			Help:      "Inbound payment webhook events by result",
		},
		[]string{"result"},
	)

	TokenOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "tokens",
			Name:      "operations_total",
			Help:      "Download token operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	TokensPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "tokens",
			Name:      "purged_total",
			Help:      "Expired, unconsumed download tokens purged on access",
		},
	)

	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	SideEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "side_effects",
			Name:      "runs_total",
			Help:      "Best-effort side effects by name and status",
		},
		[]string{"name", "status"},
	)
)
