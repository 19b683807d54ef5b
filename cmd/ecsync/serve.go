package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andresuchdata/ecsync/internal/api"
	"github.com/andresuchdata/ecsync/internal/service"
	"github.com/andresuchdata/ecsync/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

func runServe(c *cli.Context) error {
	e := envFrom(c)
	cfg := e.cfg

	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	dashboard := service.NewDashboardService(e.paths(), e.cache)
	if e.archive != nil {
		dashboard.WithArchive(e.archive)
	}
	router := api.NewRouter(&api.Services{
		DashboardService: dashboard,
		StatusService:    service.NewStatusService(cfg, e.opener, e.sinks),
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return cli.Exit("server failed: "+err.Error(), 1)
		}
		return nil
	case <-c.Context.Done():
	}

	logger.Log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return cli.Exit("server forced to shutdown: "+err.Error(), 1)
	}
	logger.Log.Info().Msg("Server exiting")
	return nil
}
