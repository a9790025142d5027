package database

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pool *pgxpool.Pool
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	// Define the PostgreSQL container request
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpassword",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	// Postgres tests are skipped when no container runtime is available.
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Printf("could not start postgres container, postgres tests will be skipped: %s", err)
		return m.Run()
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("could not stop postgres container: %s", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	if err != nil {
		log.Printf("could not get container host: %s", err)
		return 1
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		log.Printf("could not get mapped port: %s", err)
		return 1
	}

	connStr := "postgres://testuser:testpassword@" + host + ":" + port.Port() + "/testdb"

	pool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Printf("could not connect to database: %s", err)
		return 1
	}
	defer pool.Close()

	if err := MigratePostgres(ctx, pool); err != nil {
		log.Printf("could not migrate database: %s", err)
		return 1
	}

	return m.Run()
}

func postgresRepo(t *testing.T) *PostgresRepository {
	t.Helper()
	if pool == nil {
		t.Skip("postgres container not available")
	}
	_, err := pool.Exec(context.Background(), "TRUNCATE transactions RESTART IDENTITY")
	require.NoError(t, err)
	return &PostgresRepository{Pool: pool}
}

func TestPostgresRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := postgresRepo(t)
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	first, err := repo.Insert(ctx, purchase("100", "0.002", ts))
	assert.NoError(t, err)
	second, err := repo.Insert(ctx, purchase("50", "0.002", ts.Add(time.Minute)))
	assert.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, decimal.RequireFromString("100").Equal(list[0].FiatAmount))
	assert.True(t, decimal.RequireFromString("0.002").Equal(list[0].AssetAmount))
	assert.True(t, ts.Equal(list[0].Timestamp))
	assert.Equal(t, second.ID, list[1].ID)
}

func TestPostgresRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := postgresRepo(t)

	p, err := repo.Insert(ctx, purchase("10", "0.0001", time.Now()))
	require.NoError(t, err)

	assert.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgresRepository_RejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	repo := postgresRepo(t)

	_, err := repo.Insert(ctx, purchase("0", "0.1", time.Now()))
	assert.Error(t, err)
}
