package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// IngestConfig configures the webhook edge: it verifies provider deliveries
// and queues confirmations for the api workers, without a database.
type IngestConfig struct {
	Port      int    `env:"PORT" envDefault:"3001"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	WebhookSigningSecret string        `env:"WEBHOOK_SIGNING_SECRET,required"`
	WebhookTolerance     time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`

	KafkaBrokers       []string `env:"KAFKA_BROKERS,required" envSeparator:","`
	KafkaPaymentsTopic string   `env:"KAFKA_PAYMENTS_TOPIC" envDefault:"webhooks.payments"`
}

func NewIngestConfig() (IngestConfig, error) {
	c, err := env.ParseAs[IngestConfig]()
	if err != nil {
		return IngestConfig{}, err
	}

	return c, nil
}
