package sqlstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/repository/demo"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFile(t *testing.T, data Dataset) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ec.db")
	require.NoError(t, Seed(context.Background(), path, data))
	return path
}

func openFile(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestFetchWindow_SalesScenario(t *testing.T) {
	path := seedFile(t, Dataset{
		Sales: []domain.SalesRecord{
			{Date: "2025-06-09", Amount: 9999},
			{Date: "2025-06-10", Amount: 1000},
			{Date: "2025-06-10", Amount: 500},
			{Date: "2025-06-11", Amount: 2000},
		},
		Profit: []domain.ProfitRecord{
			{Date: "2025-06-10", Profit: 300},
			{Date: "2025-06-11", Profit: -100},
		},
	})
	s := openFile(t, path)

	agg, err := s.FetchWindow(context.Background(), mustDate(t, "2025-06-11"), 2)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-10", agg.Start.Format(domain.DateLayout))
	assert.Equal(t, "2025-06-11", agg.End.Format(domain.DateLayout))
	assert.Equal(t, int64(3500), agg.WindowSales)
	assert.Equal(t, int64(2000), agg.TodaySales)
	assert.Equal(t, int64(3), agg.OrderCount)
	assert.Equal(t, []domain.DailyTotal{
		{Date: "2025-06-10", Total: 1500},
		{Date: "2025-06-11", Total: 2000},
	}, agg.DailySales)
	assert.Equal(t, int64(200), agg.WindowProfit)
	assert.Equal(t, int64(-100), agg.TodayProfit)
}

func TestFetchWindow_EmptyTablesAreZero(t *testing.T) {
	s := openFile(t, seedFile(t, Dataset{}))

	agg, err := s.FetchWindow(context.Background(), mustDate(t, "2025-06-11"), 7)
	require.NoError(t, err)

	assert.Zero(t, agg.WindowSales)
	assert.Zero(t, agg.OrderCount)
	assert.Empty(t, agg.DailySales)
	assert.Zero(t, agg.TotalItems)
	assert.Zero(t, agg.StockRatio)
	assert.Zero(t, agg.WindowProfit)
}

func TestInventoryAggregates(t *testing.T) {
	t.Run("zero capacity items are excluded from the ratio", func(t *testing.T) {
		s := openFile(t, seedFile(t, Dataset{Inventory: []domain.InventoryRecord{
			{ItemID: "a", Stock: 50, ReorderLevel: 10, Capacity: 100},
			{ItemID: "b", Stock: 10, ReorderLevel: 10, Capacity: 0},
			{ItemID: "c", Stock: 100, ReorderLevel: 5, Capacity: 100},
		}}))

		total, low, err := s.InventoryCounts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, int64(1), low)

		ratio, err := s.StockRatio(context.Background())
		require.NoError(t, err)
		assert.InDelta(t, 0.75, ratio, 1e-9)
	})

	t.Run("all zero capacity yields zero", func(t *testing.T) {
		s := openFile(t, seedFile(t, Dataset{Inventory: []domain.InventoryRecord{
			{ItemID: "a", Stock: 50, Capacity: 0},
			{ItemID: "b", Stock: 20, Capacity: 0},
		}}))

		ratio, err := s.StockRatio(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.0, ratio)
	})

	t.Run("overfilled items are capped at full", func(t *testing.T) {
		s := openFile(t, seedFile(t, Dataset{Inventory: []domain.InventoryRecord{
			{ItemID: "a", Stock: 300, Capacity: 100},
		}}))

		ratio, err := s.StockRatio(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1.0, ratio)
	})
}

func TestFetchWindow_MatchesDemoProvider(t *testing.T) {
	anchor := mustDate(t, "2025-06-11")
	sales, inventory, profit := demo.SeedRecords(anchor)
	s := openFile(t, seedFile(t, Dataset{Sales: sales, Inventory: inventory, Profit: profit}))

	want, err := demo.New(sales, inventory, profit).FetchWindow(context.Background(), anchor, 7)
	require.NoError(t, err)

	got, err := s.FetchWindow(context.Background(), anchor, 7)
	require.NoError(t, err)

	assert.Equal(t, want.WindowSales, got.WindowSales)
	assert.Equal(t, want.TodaySales, got.TodaySales)
	assert.Equal(t, want.OrderCount, got.OrderCount)
	assert.Equal(t, want.DailySales, got.DailySales)
	assert.Equal(t, want.TotalItems, got.TotalItems)
	assert.Equal(t, want.LowStockItems, got.LowStockItems)
	assert.InDelta(t, want.StockRatio, got.StockRatio, 1e-9)
	assert.Equal(t, want.WindowProfit, got.WindowProfit)
}

func TestOpen_StoreUnavailable(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(context.Background(), config.DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(t.TempDir(), "missing.db"),
		})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.NotContains(t, err.Error(), "missing.db")
	})

	t.Run("missing postgres url", func(t *testing.T) {
		_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})

	t.Run("missing tables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		s := openFile(t, path)

		_, err := s.FetchWindow(context.Background(), mustDate(t, "2025-06-11"), 7)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestOpen_PathWithURIMetacharacters(t *testing.T) {
	for _, name := range []string{"shop#1.db", "shop%41.db", "shop?mode=rwc.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			db, err := sqlx.Open("sqlite3", "file:"+uriPath.Replace(path)+"?mode=rwc")
			require.NoError(t, err)
			require.NoError(t, Load(context.Background(), db, Dataset{
				Sales: []domain.SalesRecord{{Date: "2025-06-11", Amount: 2000}},
			}))
			require.NoError(t, db.Close())

			got, err := openFile(t, path).FetchWindow(context.Background(), mustDate(t, "2025-06-11"), 7)
			require.NoError(t, err)
			assert.Equal(t, int64(2000), got.WindowSales)
		})
	}
}

func TestReadOnlyDSN(t *testing.T) {
	assert.Equal(t, "file:data/ec.db?mode=ro", readOnlyDSN("data/ec.db"))
	assert.Equal(t, "file:/srv/a%23b%3Fc%25d.db?mode=ro", readOnlyDSN("/srv/a#b?c%d.db"))
}

func TestFetchWindow_QueryErrorIsStoreUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM sales")).
		WithArgs("2025-06-11", "2025-06-11").
		WillReturnError(errors.New("disk I/O error"))

	s := New(sqlx.NewDb(db, "sqlmock"))
	_, err = s.FetchWindow(context.Background(), mustDate(t, "2025-06-11"), 7)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}
