package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// Database is a disposable PostgreSQL instance for the integration suite.
type Database struct {
	container *postgres.PostgresContainer
	URL       string
}

// StartPostgres launches a PostgreSQL container and waits until it accepts
// connections.
func StartPostgres(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("powerbill"),
		postgres.WithUsername("powerbill"),
		postgres.WithPassword("powerbill"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &Database{container: container, URL: url}, nil
}

// Stop terminates the container.
func (d *Database) Stop(ctx context.Context) error {
	return d.container.Terminate(ctx)
}
