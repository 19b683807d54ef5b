package main

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/ecsync/internal/cache"
	"github.com/andresuchdata/ecsync/internal/config"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/drive"
	"github.com/andresuchdata/ecsync/internal/insights"
	"github.com/andresuchdata/ecsync/internal/metrics"
	"github.com/andresuchdata/ecsync/internal/pipeline"
	"github.com/andresuchdata/ecsync/internal/report"
	"github.com/andresuchdata/ecsync/internal/repository"
	"github.com/andresuchdata/ecsync/internal/sink"
	"github.com/andresuchdata/ecsync/internal/sink/notion"
	"github.com/andresuchdata/ecsync/internal/storage"
	"github.com/andresuchdata/ecsync/pkg/logger"
	"github.com/urfave/cli/v2"
)

type envKey struct{}

// env is everything a command needs, built once from configuration.
type env struct {
	cfg       *config.Config
	opener    repository.Opener
	cache     cache.ReportCache
	archive   *storage.ReportArchive
	insights  insights.Generator
	sinks     []sink.Sink
	publisher *sink.Publisher
	closers   []func() error
}

func loadEnv(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	level := cfg.App.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger.Setup(level, cfg.App.Debug)

	e, err := buildEnv(c.Context, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	c.Context = context.WithValue(c.Context, envKey{}, e)
	return nil
}

func closeEnv(c *cli.Context) error {
	e, ok := c.Context.Value(envKey{}).(*env)
	if !ok || e == nil {
		return nil
	}
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

func envFrom(c *cli.Context) *env {
	return c.Context.Value(envKey{}).(*env)
}

func buildEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	opener, err := repository.NewOpener(cfg)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, opener: opener, insights: insights.Disabled{}}
	today := func() string { return domain.Day(time.Now()).Format(domain.DateLayout) }

	e.cache, err = cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, continuing without it")
		e.cache = cache.NewNoopReportCache()
	}
	e.closers = append(e.closers, e.cache.Close)

	var objects storage.ObjectStorage
	if cfg.Storage.Configured() {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage client could not be created")
		} else {
			objects = client
			e.archive = storage.NewReportArchive(client, cfg.Storage.Prefix)
		}
	}

	var files drive.Files
	if cfg.Drive.Configured() {
		svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("google drive client could not be created")
		} else {
			files = svc
		}
	}

	if cfg.AI.Configured() {
		g, err := insights.NewGemini(ctx, cfg.AI)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("gemini client could not be created")
		} else {
			e.insights = g
			e.closers = append(e.closers, g.Close)
		}
	}

	e.sinks = []sink.Sink{
		notion.NewClient(cfg.Notion, nil),
		storage.NewReportSink(objects, cfg.Storage.Prefix, today),
		cache.NewSink(e.cache, today),
		drive.NewSink(files, cfg.Drive.FolderID),
	}
	e.publisher = sink.NewPublisher(sink.Options{
		Timeout:  cfg.Sync.SinkTimeout,
		Parallel: cfg.Sync.SinkParallel,
		Limit:    cfg.Sync.SinkLimit,
	}, e.sinks...)

	return e, nil
}

func (e *env) paths() report.Paths {
	return report.Paths{Artifact: e.cfg.App.ArtifactPath, History: e.cfg.App.HistoryDir}
}

func (e *env) syncer() (*pipeline.Syncer, error) {
	policy, err := metrics.ParseAvgOrderPolicy(e.cfg.Metrics.AvgOrderPolicy)
	if err != nil {
		return nil, err
	}

	cfg := pipeline.Config{
		WindowDays: e.cfg.Metrics.WindowDays,
		Paths:      e.paths(),
		Integrations: domain.IntegrationStatus{
			Amazon:  e.cfg.Market.AmazonClientID != "",
			Rakuten: e.cfg.Market.RakutenServiceSecret != "",
		},
		Location:        time.Local,
		InsightsTimeout: e.cfg.AI.Timeout,
	}
	return pipeline.NewSyncer(cfg, e.opener, metrics.NewAggregator(policy), report.NewWriter(), e.publisher,
		pipeline.WithInsights(e.insights)), nil
}
