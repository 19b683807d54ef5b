package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Schema creates the three record tables. It is valid for SQLite and Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS sales (
    date   TEXT    NOT NULL,
    amount BIGINT  NOT NULL CHECK (amount >= 0)
);
CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (date);

CREATE TABLE IF NOT EXISTS inventory (
    item_id       TEXT   PRIMARY KEY,
    stock         BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
    reorder_level BIGINT NOT NULL DEFAULT 0 CHECK (reorder_level >= 0),
    capacity      BIGINT NOT NULL DEFAULT 0 CHECK (capacity >= 0)
);

CREATE TABLE IF NOT EXISTS profit (
    date   TEXT   NOT NULL,
    profit BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_profit_date ON profit (date);
`

// Dataset is a batch of records to load into a store.
type Dataset struct {
	Sales     []domain.SalesRecord
	Inventory []domain.InventoryRecord
	Profit    []domain.ProfitRecord
}

// Seed creates the schema in a writable SQLite file at path and loads data.
// It is a tooling entry point; the sync chain only opens stores read-only.
func Seed(ctx context.Context, path string, data Dataset) error {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	return Load(ctx, db, data)
}

// Load creates the schema on db and inserts data in one transaction.
func Load(ctx context.Context, db *sqlx.DB, data Dataset) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, r := range data.Sales {
			if _, err := tx.NamedExecContext(ctx, `INSERT INTO sales (date, amount) VALUES (:date, :amount)`, r); err != nil {
				return fmt.Errorf("insert sales: %w", err)
			}
		}
		for _, r := range data.Inventory {
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO inventory (item_id, stock, reorder_level, capacity) VALUES (:item_id, :stock, :reorder_level, :capacity)`, r); err != nil {
				return fmt.Errorf("insert inventory: %w", err)
			}
		}
		for _, r := range data.Profit {
			if _, err := tx.NamedExecContext(ctx, `INSERT INTO profit (date, profit) VALUES (:date, :profit)`, r); err != nil {
				return fmt.Errorf("insert profit: %w", err)
			}
		}
		return nil
	})
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
