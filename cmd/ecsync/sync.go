package main

import (
	"fmt"
	"io"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/pipeline"
	"github.com/urfave/cli/v2"
)

func runSyncOne(c *cli.Context) error {
	e := envFrom(c)
	s, err := e.syncer()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	date := s.Today()
	if arg := c.Args().First(); arg != "" {
		date, err = domain.ParseDate(arg, time.Local)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", arg), 2)
		}
	}

	out := s.SyncDate(c.Context, date)
	printOutcome(c.App.Writer, out)

	switch {
	case out.Err != nil:
		return cli.Exit("", 1)
	case out.Published.AllFailed():
		return cli.Exit("", 1)
	}
	return nil
}

func runSyncBatch(c *cli.Context) error {
	e := envFrom(c)
	s, err := e.syncer()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	days := c.Int("days")
	if days < 0 {
		return cli.Exit("--days must not be negative", 2)
	}
	pace := e.cfg.Sync.BatchPace
	if c.IsSet("pace") {
		pace = c.Duration("pace")
	}

	driver := pipeline.NewBatchDriver(s, pipeline.BatchConfig{Pace: pace}, s.Today)
	result := driver.Run(c.Context, days)
	printBatch(c.App.Writer, result)

	if result.Failed() {
		return cli.Exit("", 1)
	}
	return nil
}

// printOutcome renders one status line per component and a summary.
func printOutcome(w io.Writer, out domain.SyncOutcome) {
	for _, step := range out.Steps {
		fmt.Fprintf(w, "%-8s %-14s %s\n", "["+string(step.Status)+"]", step.Component, step.Detail)
	}
	for _, r := range out.Published.Results {
		detail := r.Reason
		if r.Status == domain.PublishSucceeded {
			detail = r.Duration.Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%-8s %-14s %s\n", "["+string(r.Status)+"]", "sink "+r.Sink, detail)
	}

	p := out.Published
	fmt.Fprintf(w, "summary: date=%s sinks succeeded=%d skipped=%d failed=%d", out.Date, p.Succeeded(), p.Skipped(), p.Failed())
	if out.Err != nil {
		fmt.Fprintf(w, " error=%q", out.Err.Error())
	}
	fmt.Fprintln(w)

	if out.Err == nil && len(p.Results) > 0 && p.Skipped() == len(p.Results) {
		fmt.Fprintln(w, "warning: no sink is configured; the report was only written locally")
	}
}

func printBatch(w io.Writer, result domain.BatchResult) {
	for _, d := range result.Dates {
		line := fmt.Sprintf("%-10s %s", d.State, d.Date)
		if d.Error != "" {
			line += "  " + d.Error
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "batch %s: %d/%d succeeded", result.RunID, result.Succeeded(), result.Requested)
	if result.Cancelled {
		fmt.Fprint(w, " (cancelled)")
	}
	fmt.Fprintln(w)
}
