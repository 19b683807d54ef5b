package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresuchdata/ecsync/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	err := app.RunContext(ctx, os.Args)
	stop()
	os.Exit(exitCode(err))
}

// exitCode reports err and maps it to the process exit status. Exit
// errors are handled here rather than inside the app so After hooks run.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		if msg := coder.Error(); msg != "" {
			logger.Log.Error().Msg(msg)
		}
		return coder.ExitCode()
	}
	logger.Log.Error().Err(err).Msg("ecsync failed")
	return 1
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ecsync",
		Usage: "Aggregate shop sales, inventory and profit into a dashboard report and publish it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before:         loadEnv,
		After:          closeEnv,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show configuration, data source reachability and integration score",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Print the status report as JSON"}},
				Action: runStatus,
			},
			{
				Name:      "sync-one",
				Usage:     "Build, write and publish the report for one date (default today)",
				ArgsUsage: "[YYYY-MM-DD]",
				Action:    runSyncOne,
			},
			{
				Name:  "sync-batch",
				Usage: "Replay the sync for the last N days, one date at a time",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"n"},
						Usage:   "Number of dates to sync, counting back from today",
						Value:   7,
					},
					&cli.DurationFlag{
						Name:  "pace",
						Usage: "Pause between dates (defaults to BATCH_PACE_MS)",
					},
				},
				Action: runSyncBatch,
			},
			{
				Name:   "serve",
				Usage:  "Serve the dashboard report as JSON over HTTP",
				Action: runServe,
			},
			{
				Name:  "seed",
				Usage: "Create the SQLite store and load the demo records",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "demo", Usage: "Load the demo data set", Value: true},
					&cli.StringFlag{Name: "path", Usage: "SQLite file to create (defaults to DATABASE_PATH)"},
					&cli.BoolFlag{Name: "force", Usage: "Replace an existing file"},
				},
				Action: runSeed,
			},
		},
	}
}
