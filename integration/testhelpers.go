//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aqasim81/dealfinder-db/internal/migration"
)

const (
	postgisImage = "postgis/postgis:16-3.4-alpine"
	testDB       = "deal_finder"
	testUser     = "postgres"
	testPassword = "postgres"
)

// SetupPostgresDSN starts a PostGIS container and returns its connection URL.
// The container is terminated when the test completes.
func SetupPostgresDSN(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgisImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDB,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		// The entrypoint restarts the server once after loading PostGIS.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return "postgres://" + testUser + ":" + testPassword + "@" + host + ":" + port.Port() + "/" + testDB + "?sslmode=disable"
}

// SetupPostgres starts a PostGIS container and returns a connection pool.
// The container and pool are cleaned up when the test completes.
func SetupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, SetupPostgresDSN(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	require.NoError(t, pool.Ping(ctx))

	return pool
}

// sqlFile builds a migration file the way the loader would.
func sqlFile(name, sql string) migration.File {
	return migration.File{
		Filename: name,
		Path:     "migrations/" + name,
		SQL:      sql,
		Checksum: migration.ComputeChecksum(sql),
	}
}

// tableExists reports whether a relation with the qualified name exists.
func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()

	var exists bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists))

	return exists
}
