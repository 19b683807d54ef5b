package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/repository/demo"
	"github.com/andresuchdata/ecsync/internal/repository/sqlstore"
)

// DataProvider answers the window aggregate queries a report is built from.
type DataProvider interface {
	FetchWindow(ctx context.Context, today time.Time, windowDays int) (domain.WindowAggregates, error)
	Close() error
}

// Opener acquires a DataProvider for the duration of one invocation.
// The caller must Close what it opened.
type Opener interface {
	Name() string
	Open(ctx context.Context) (DataProvider, error)
}

type liveOpener struct {
	cfg config.DatabaseConfig
}

// NewLiveStoreOpener opens the relational store described by cfg, read-only.
func NewLiveStoreOpener(cfg config.DatabaseConfig) Opener {
	return &liveOpener{cfg: cfg}
}

func (o *liveOpener) Name() string { return "live:" + o.cfg.Driver }

func (o *liveOpener) Open(ctx context.Context) (DataProvider, error) {
	return sqlstore.Open(ctx, o.cfg)
}

type demoOpener struct {
	now func() time.Time
}

// NewDemoOpener serves fixed demo records anchored at the current day.
func NewDemoOpener(now func() time.Time) Opener {
	if now == nil {
		now = time.Now
	}
	return &demoOpener{now: now}
}

func (o *demoOpener) Name() string { return config.SourceDemo }

func (o *demoOpener) Open(ctx context.Context) (DataProvider, error) {
	return demo.NewSeeded(o.now()), nil
}

// NewOpener selects the provider implementation once, from configuration.
func NewOpener(cfg *config.Config) (Opener, error) {
	switch cfg.App.DataSource {
	case config.SourceLive:
		return NewLiveStoreOpener(cfg.Database), nil
	case config.SourceDemo:
		return NewDemoOpener(nil), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.App.DataSource)
	}
}

// Static wraps an already constructed provider. Close on the returned
// provider is a no-op so the same instance can be reused across iterations.
func Static(name string, p DataProvider) Opener {
	return &staticOpener{name: name, p: p}
}

type staticOpener struct {
	name string
	p    DataProvider
}

func (o *staticOpener) Name() string { return o.name }

func (o *staticOpener) Open(ctx context.Context) (DataProvider, error) {
	return nopCloser{o.p}, nil
}

type nopCloser struct {
	DataProvider
}

func (nopCloser) Close() error { return nil }
