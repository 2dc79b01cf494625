//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const paymentsPartitions = 3

type KafkaContainer struct {
	Container     *kafka.KafkaContainer
	Brokers       []string
	PaymentsTopic string
	DLQTopic      string
	PaymentsGroup string
}

// NewKafka starts a single-node broker with a fresh payments topic, its
// dead letter topic and a unique consumer group.
func NewKafka(ctx context.Context) (*KafkaContainer, error) {
	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("fulfillment-test"),
	)
	if err != nil {
		return nil, fmt.Errorf("start kafka: %w", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("kafka brokers: %w", err)
	}

	run := uuid.NewString()[:8]
	c := &KafkaContainer{
		Container:     container,
		Brokers:       brokers,
		PaymentsTopic: "test-payments-" + run,
		PaymentsGroup: "test-payments-group-" + run,
	}
	c.DLQTopic = c.PaymentsTopic + ".dlq"

	if err := createTopics(ctx, brokers[0], c.PaymentsTopic, c.DLQTopic); err != nil {
		c.Cleanup(ctx)
		return nil, err
	}
	return c, nil
}

// createTopics retries until the controller accepts admin requests, which
// happens some time after the listener opens.
func createTopics(ctx context.Context, broker string, topics ...string) error {
	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{Topic: topic, NumPartitions: paymentsPartitions, ReplicationFactor: 1}
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, createOnController(ctx, broker, configs)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(250*time.Millisecond)),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("create topics %v: %w", topics, err)
	}
	return nil
}

func createOnController(ctx context.Context, broker string, configs []kafkago.TopicConfig) error {
	conn, err := kafkago.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	ctrlConn, err := kafkago.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrlConn.Close()

	return ctrlConn.CreateTopics(configs...)
}

func (c *KafkaContainer) Cleanup(ctx context.Context) {
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}
