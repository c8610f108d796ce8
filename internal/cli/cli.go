// Package cli implements the ltpctl subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/config"
	"github.com/ltpboard/ltpboard/internal/di"
	"github.com/ltpboard/ltpboard/pkg/logger"
)

// Commands lists every ltpctl subcommand.
var Commands = []subcommands.Command{
	&snapshotCmd{},
	&portfoliosCmd{},
	&historyCmd{},
	&backupCmd{},
}

// stdout is where rendered output goes.
var stdout io.Writer = os.Stdout

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(140),
	)
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Fprint(stdout, out)
			return
		}
	}
	fmt.Fprint(stdout, md)
}

// commandLogger only reports warnings and errors so they do not drown the
// rendered output.
func commandLogger(verbose bool) zerolog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Pretty: true, Out: os.Stderr})
}

// wire loads configuration and builds the container the same way the server
// does, with history switched on or off by the caller.
func wire(ctx context.Context, history bool, log zerolog.Logger) (*config.Config, *di.Container, *di.JobInstances, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.HistoryEnabled = history

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, container, jobs, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
