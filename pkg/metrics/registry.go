// Package metrics holds the service's Prometheus collectors on a private registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		HTTPRequestDuration,
		HTTPRequestsTotal,
		KafkaProcessingDuration,
		KafkaMessagesProcessed,
		KafkaDeadLettered,

		PaymentTransitions,
		WebhookEvents,
		TokenOperations,
		TokensPurged,
		RateLimitRejections,
		SideEffects,
	)
}
