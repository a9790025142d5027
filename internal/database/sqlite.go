package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"stacker/internal/database/migrations"
	"stacker/internal/model"
)

// SQLiteRepository implements Repository on a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway ledger.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	// a single connection keeps ":memory:" databases coherent and serializes writers
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, goose.DialectSQLite3, db, migrations.SQLite, "sqlite")
}

// Insert stores p and returns it with the generated id.
func (r *SQLiteRepository) Insert(ctx context.Context, p model.Purchase) (model.Purchase, error) {
	query := `INSERT INTO transactions (fiat_amount, asset_amount, timestamp) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.FiatAmount.String(), p.AssetAmount.String(), p.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return model.Purchase{}, fmt.Errorf("failed to insert purchase: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Purchase{}, fmt.Errorf("failed to get inserted id: %w", err)
	}
	p.ID = id
	p.Timestamp = p.Timestamp.UTC()
	return p, nil
}

// Delete removes the purchase with the given id, or returns ErrNotFound.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("purchase %d: %w", id, ErrNotFound)
	}
	return nil
}

// List returns every purchase ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]model.Purchase, error) {
	query := `SELECT id, fiat_amount, asset_amount, timestamp FROM transactions ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select purchases: %w", err)
	}
	defer rows.Close()

	result := []model.Purchase{}
	for rows.Next() {
		var (
			p           model.Purchase
			fiat, asset string
			ts          string
		)
		if err := rows.Scan(&p.ID, &fiat, &asset, &ts); err != nil {
			return nil, err
		}
		if p.FiatAmount, err = decimal.NewFromString(fiat); err != nil {
			return nil, fmt.Errorf("purchase %d: bad fiat amount %q: %w", p.ID, fiat, err)
		}
		if p.AssetAmount, err = decimal.NewFromString(asset); err != nil {
			return nil, fmt.Errorf("purchase %d: bad asset amount %q: %w", p.ID, asset, err)
		}
		if p.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("purchase %d: bad timestamp %q: %w", p.ID, ts, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
