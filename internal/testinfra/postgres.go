//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"ShopFulfillment/internal/api"
	"ShopFulfillment/pkg/postgres"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:17-alpine"
	pgUser     = "fulfillment"
	pgPassword = "fulfillment"
	pgDatabase = "fulfillment_test"
)

// Tables in FK-safe order; tokens and events reference orders.
const fulfillmentTables = "download_tokens, order_events, orders"

type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *postgres.Postgres
	DSN       string
}

func pgDSN(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port.Port(), pgDatabase)
}

// NewPostgres starts a throwaway database with the service schema applied.
func NewPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: pgImage,
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForSQL("5432/tcp", "postgres", pgDSN).WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	c := &PostgresContainer{Container: container}
	if err := c.connect(ctx); err != nil {
		c.Cleanup(ctx)
		return nil, err
	}
	return c, nil
}

func (c *PostgresContainer) connect(ctx context.Context) error {
	host, err := c.Container.Host(ctx)
	if err != nil {
		return fmt.Errorf("postgres host: %w", err)
	}
	port, err := c.Container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("postgres port: %w", err)
	}
	c.DSN = pgDSN(host, port)

	if err := api.ApplyMigrations(ctx, c.DSN, api.MigrationFS); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	c.Pool, err = postgres.New(c.DSN, postgres.MaxPoolSize(20), postgres.ConnAttempts(3))
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}
	return nil
}

func (c *PostgresContainer) Cleanup(ctx context.Context) {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}

// Truncate empties every service table between tests.
func (c *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := c.Pool.Pool.Exec(ctx, "TRUNCATE TABLE "+fulfillmentTables+" CASCADE")
	return err
}
