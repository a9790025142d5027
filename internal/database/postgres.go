package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"stacker/internal/database/migrations"
	"stacker/internal/model"
)

// PostgresRepository implements Repository on a PostgreSQL pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// MigratePostgres runs the embedded postgres migrations through goose.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return migrate(ctx, goose.DialectPostgres, db, migrations.Postgres, "postgres")
}

// Insert stores p and returns it with the generated id.
func (r *PostgresRepository) Insert(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	query := `INSERT INTO transactions (fiat_amount, asset_amount, timestamp)
		VALUES ($1::text::numeric, $2::text::numeric, $3)
		RETURNING id`
	err := r.Pool.QueryRow(ctx, query, p.FiatAmount.String(), p.AssetAmount.String(), p.Timestamp.UTC()).Scan(&p.ID)
	if err != nil {
		return model.Purchase{}, fmt.Errorf("failed to insert purchase: %w", err)
	}
	p.Timestamp = p.Timestamp.UTC()
	return p, nil
}

// Delete removes the purchase with the given id, or returns ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase %d: %w", id, ErrNotFound)
	}
	return nil
}

// List returns every purchase ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]model.Purchase, error) {
	query := `SELECT id, fiat_amount::text, asset_amount::text, timestamp FROM transactions ORDER BY id`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select purchases: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Purchase, error) {
		var (
			p           model.Purchase
			fiat, asset string
		)
		if err := row.Scan(&p.ID, &fiat, &asset, &p.Timestamp); err != nil {
			return p, err
		}
		var err error
		if p.FiatAmount, err = decimal.NewFromString(fiat); err != nil {
			return p, fmt.Errorf("purchase %d: bad fiat amount %q: %w", p.ID, fiat, err)
		}
		if p.AssetAmount, err = decimal.NewFromString(asset); err != nil {
			return p, fmt.Errorf("purchase %d: bad asset amount %q: %w", p.ID, asset, err)
		}
		p.Timestamp = p.Timestamp.UTC()
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan purchases: %w", err)
	}
	return result, nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.Pool.Close()
	return nil
}
