package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Store runs the dashboard aggregate queries against a sales/inventory/profit
// schema. All statements are reads.
type Store struct {
	db *sqlx.DB
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the configured store. A missing SQLite file, an empty
// Postgres URL or a failed ping is reported as domain.ErrStoreUnavailable.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStoreUnavailable, driver, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", domain.ErrStoreUnavailable, driver, err)
	}

	log.Debug().Str("driver", driver).Msg("store: opened")
	return &Store{db: db}, nil
}

func dataSource(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case "sqlite3", "":
		// The path is configuration secret material and stays out of errors.
		if _, err := os.Stat(cfg.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", "", fmt.Errorf("%w: database file not found", domain.ErrStoreUnavailable)
			}
			return "", "", fmt.Errorf("%w: database file not accessible", domain.ErrStoreUnavailable)
		}
		return "sqlite3", readOnlyDSN(cfg.Path), nil
	case "postgres", "pgx":
		if cfg.URL == "" {
			return "", "", fmt.Errorf("%w: DATABASE_URL is empty", domain.ErrStoreUnavailable)
		}
		return cfg.Driver, cfg.URL, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported driver %q", domain.ErrStoreUnavailable, cfg.Driver)
	}
}

// uriPath escapes the characters that end or alter the path part of an
// SQLite URI filename.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func readOnlyDSN(path string) string {
	return "file:" + uriPath.Replace(path) + "?mode=ro"
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
