package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/andresuchdata/ecsync/internal/service"
	"github.com/urfave/cli/v2"
)

func runStatus(c *cli.Context) error {
	e := envFrom(c)
	rep := service.NewStatusService(e.cfg, e.opener, e.sinks).Check(c.Context)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printStatus(c.App.Writer, rep)
	return nil
}

func printStatus(w io.Writer, rep service.StatusReport) {
	fmt.Fprintf(w, "data source: %s\n", rep.DataSource)
	for _, comp := range rep.Components {
		mark := "[ok]"
		if !comp.Ready {
			mark = "[--]"
		}
		fmt.Fprintf(w, "%-5s %-22s %s\n", mark, comp.Name, comp.Detail)
	}

	keys := make([]string, 0, len(rep.Settings))
	for k := range rep.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "settings:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %-30s %s\n", k, rep.Settings[k])
	}
	if rep.ArtifactAt != nil {
		fmt.Fprintf(w, "last report generated at %s\n", rep.ArtifactAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "integration score: %.1f%%\n", rep.IntegrationScore)
}
