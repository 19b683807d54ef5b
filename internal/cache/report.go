package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix = "dashboard:report:"
	latestKey       = reportKeyPrefix + "latest"
	scanBatchSize   = 100
)

// ReportCache keeps recently built reports for the dashboard server.
type ReportCache interface {
	GetLatest(ctx context.Context) (*domain.Report, bool, error)
	GetByDate(ctx context.Context, date string) (*domain.Report, bool, error)
	// Set stores r under its date, and as latest when latest is true.
	Set(ctx context.Context, r *domain.Report, latest bool) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache connects to Redis when caching is enabled and returns a
// no-op cache otherwise.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return newRedisReportCache(client, reportTTL(cfg)), nil
}

// newRedisReportCache wraps an existing client.
func newRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &redisReportCache{client: client, ttl: ttl}
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

// IsNoop reports whether c discards everything it is given.
func IsNoop(c ReportCache) bool {
	_, ok := c.(*noopReportCache)
	return ok
}

func dateKey(date string) string {
	return reportKeyPrefix + date
}

func (c *redisReportCache) GetLatest(ctx context.Context) (*domain.Report, bool, error) {
	return c.get(ctx, latestKey)
}

func (c *redisReportCache) GetByDate(ctx context.Context, date string) (*domain.Report, bool, error) {
	return c.get(ctx, dateKey(date))
}

func (c *redisReportCache) get(ctx context.Context, key string) (*domain.Report, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var r domain.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}
	return &r, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, r *domain.Report, latest bool) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, dateKey(r.Period.Today), payload, c.ttl)
	if latest {
		pipe.Set(ctx, latestKey, payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return unlinkMatching(ctx, c.client, reportKeyPrefix+"*", scanBatchSize)
}

func (c *redisReportCache) Close() error {
	return c.client.Close()
}

func (n *noopReportCache) GetLatest(ctx context.Context) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) GetByDate(ctx context.Context, date string) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) Set(ctx context.Context, r *domain.Report, latest bool) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopReportCache) Close() error {
	return nil
}
