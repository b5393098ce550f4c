package postgresql

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDSN(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
}

func TestStorage_Migrate(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container is not started in short mode")
	}

	ctx := context.Background()

	s, err := New(ctx, setupTestDSN(t))
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.HealthCheck(ctx))
	require.NoError(t, s.Migrate(ctx))
	// повторный запуск ничего не меняет
	require.NoError(t, s.Migrate(ctx))

	var tables int
	err = s.Pool().QueryRow(ctx, `
		SELECT count(*) FROM information_schema.tables
		WHERE table_name IN ('event_capacity', 'event_registrations')`).Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 2, tables)
}
