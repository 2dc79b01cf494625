package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fulfillment",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route template",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"handler", "method", "status_code"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route template",
		},
		[]string{"handler", "method", "status_code"},
	)

	KafkaProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fulfillment",
			Subsystem: "kafka",
			Name:      "message_processing_duration_seconds",
			Help:      "Payment message handling time including retries",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic", "consumer_group", "status"},
	)

	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "kafka",
			Name:      "messages_processed_total",
			Help:      "Payment messages handled by outcome",
		},
		[]string{"topic", "consumer_group", "status"},
	)

	KafkaDeadLettered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfillment",
			Subsystem: "kafka",
			Name:      "dead_lettered_total",
			Help:      "Messages parked on the dead letter topic",
		},
		[]string{"reason"},
	)
)
