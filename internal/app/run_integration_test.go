//go:build integration

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRun_PostgresRestart(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx, "postgres:18-alpine",
		tcpostgres.WithDatabase("stall"),
		tcpostgres.WithUsername("stall"),
		tcpostgres.WithPassword("stall"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	exerciseRestart(t, StorageConfig{
		Driver:      DriverPostgres,
		DatabaseURL: dsn,
		Slot:        "customers",
	})
}

func TestRun_RedisRestart(t *testing.T) {
	ctx := context.Background()
	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, rc)
	require.NoError(t, err)

	endpoint, err := rc.Endpoint(ctx, "")
	require.NoError(t, err)

	exerciseRestart(t, StorageConfig{
		Driver:    DriverRedis,
		RedisAddr: endpoint,
		Slot:      "customers",
	})
}
