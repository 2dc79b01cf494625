//go:build integration

package testinfra

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc"
)

type TestSuite struct {
	Postgres *PostgresContainer
	Kafka    *KafkaContainer
}

type SuiteOptions struct {
	WithKafka bool
}

// NewTestSuite starts the containers a test needs in parallel.
func NewTestSuite(ctx context.Context, opts SuiteOptions) (*TestSuite, error) {
	suite := &TestSuite{}
	var (
		wg          conc.WaitGroup
		pgErr, kErr error
	)

	wg.Go(func() {
		suite.Postgres, pgErr = NewPostgres(ctx)
	})
	if opts.WithKafka {
		wg.Go(func() {
			suite.Kafka, kErr = NewKafka(ctx)
		})
	}
	wg.Wait()

	if err := errors.Join(pgErr, kErr); err != nil {
		suite.Cleanup(ctx)
		return nil, fmt.Errorf("failed to start containers: %w", err)
	}
	return suite, nil
}

func (s *TestSuite) Cleanup(ctx context.Context) {
	if s.Kafka != nil {
		s.Kafka.Cleanup(ctx)
	}
	if s.Postgres != nil {
		s.Postgres.Cleanup(ctx)
	}
}
