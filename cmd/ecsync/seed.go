package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/ecsync/internal/cache"
	"github.com/andresuchdata/ecsync/internal/repository/demo"
	"github.com/andresuchdata/ecsync/internal/repository/sqlstore"
	"github.com/andresuchdata/ecsync/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runSeed(c *cli.Context) error {
	e := envFrom(c)
	if !c.Bool("demo") {
		return cli.Exit("only the demo data set can be seeded; pass --demo", 2)
	}

	path := c.String("path")
	if path == "" {
		path = e.cfg.Database.Path
	}

	if _, err := os.Stat(path); err == nil {
		if !c.Bool("force") {
			return cli.Exit(fmt.Sprintf("%s already exists; pass --force to replace it", path), 2)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	sales, inventory, profit := demo.SeedRecords(time.Now())
	data := sqlstore.Dataset{Sales: sales, Inventory: inventory, Profit: profit}
	if err := sqlstore.Seed(c.Context, path, data); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	// Reports cached before the reseed were built from the old records.
	invalidateReports(c.Context, e.cache)

	logger.Log.Info().
		Str("path", path).
		Int("sales", len(sales)).
		Int("inventory", len(inventory)).
		Int("profit", len(profit)).
		Msg("demo store seeded")
	fmt.Fprintf(c.App.Writer, "seeded %s: %d sales, %d inventory items, %d profit rows\n", path, len(sales), len(inventory), len(profit))
	return nil
}

func invalidateReports(ctx context.Context, rc cache.ReportCache) {
	if rc == nil || cache.IsNoop(rc) {
		return
	}
	if err := rc.InvalidateAll(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("cached reports could not be invalidated")
		return
	}
	logger.Log.Info().Msg("cached reports invalidated")
}
