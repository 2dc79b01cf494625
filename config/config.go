package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"3000"`
	PgURL     string `env:"PG_URL,required"`
	PgPoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Shared secret for operator endpoints (tracking, amend). Empty disables the check.
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// Payment webhook verification (Stripe signing scheme)
	WebhookSigningSecret string        `env:"WEBHOOK_SIGNING_SECRET,required"`
	WebhookTolerance     time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`

	// Webhook processing mode: "sync" (direct) or "kafka" (async via Kafka)
	WebhookMode string `env:"WEBHOOK_MODE" envDefault:"sync"`

	// Bounded wait for an order row that the webhook raced ahead of
	OrderLookupAttempts    uint          `env:"ORDER_LOOKUP_ATTEMPTS" envDefault:"3"`
	OrderLookupBaseDelay   time.Duration `env:"ORDER_LOOKUP_BASE_DELAY" envDefault:"200ms"`
	OrderLookupTotalBudget time.Duration `env:"ORDER_LOOKUP_TOTAL_BUDGET" envDefault:"2s"`

	// Kafka configuration
	KafkaBrokers               []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaPaymentsTopic         string   `env:"KAFKA_PAYMENTS_TOPIC" envDefault:"webhooks.payments"`
	KafkaPaymentsDLQTopic      string   `env:"KAFKA_PAYMENTS_DLQ_TOPIC" envDefault:"webhooks.payments.dlq"`
	KafkaPaymentsConsumerGroup string   `env:"KAFKA_PAYMENTS_CONSUMER_GROUP" envDefault:"fulfillment-payments"`
	KafkaPaymentsConsumers     int      `env:"KAFKA_PAYMENTS_CONSUMERS" envDefault:"1"`

	// Download tokens
	TokenDefaultTTLMinutes int    `env:"TOKEN_DEFAULT_TTL_MINUTES" envDefault:"60"`
	LegacyTokenFile        string `env:"LEGACY_TOKEN_FILE"`

	// Token issuance rate limiting: "memory" (single instance) or "redis"
	RateLimitBackend  string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	RateLimitCapacity int           `env:"RATE_LIMIT_CAPACITY" envDefault:"100"`
	RedisURL          string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Outbound email service (confirmation + shipment notices)
	MailerBaseURL       string        `env:"MAILER_BASE_URL,required"`
	MailerConfirmPath   string        `env:"MAILER_CONFIRMATION_PATH" envDefault:"/v1/messages/order-confirmation"`
	MailerShipmentPath  string        `env:"MAILER_SHIPMENT_PATH" envDefault:"/v1/messages/shipment"`
	MailerTimeout       time.Duration `env:"MAILER_TIMEOUT" envDefault:"10s"`
	MailerRatePerSecond float64       `env:"MAILER_RATE_PER_SECOND" envDefault:"10"`

	SideEffectTimeout     time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"30s"`
	SideEffectConcurrency int           `env:"SIDE_EFFECT_CONCURRENCY" envDefault:"32"`

	// Optional audit mirror
	OpensearchUrls        []string `env:"OPENSEARCH_URLS" envSeparator:","`
	OpensearchIndexOrders string   `env:"OPENSEARCH_INDEX_ORDERS" envDefault:"order-events"`
}

func New() (Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}
