package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ltpboard/ltpboard/internal/modules/history"
	"github.com/ltpboard/ltpboard/internal/modules/portfolio"
)

type snapshotCmd struct {
	record  bool
	verbose bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "run one refresh cycle and print the dashboard" }
func (*snapshotCmd) Usage() string {
	return `ltpctl snapshot [-record] [-v]

  Looks up every holding's last price once, then prints each portfolio
  table, its totals and the per-holding PnL.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.record, "record", false, "also append the cycle to the history database")
	f.BoolVar(&c.verbose, "v", false, "verbose logging")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	log := commandLogger(c.verbose)
	_, container, jobs, err := wire(ctx, c.record, log)
	if err != nil {
		return fail(err)
	}
	defer container.Close(log)

	if err := jobs.Refresh.Refresh(); err != nil {
		// A sink error still leaves a published view
		if container.StateManager.Current().IsZero() {
			return fail(err)
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	printMarkdown(ViewMarkdown(container.StateManager.Current()))
	return subcommands.ExitSuccess
}

type portfoliosCmd struct {
	file string
}

func (*portfoliosCmd) Name() string     { return "portfolios" }
func (*portfoliosCmd) Synopsis() string { return "print the configured holdings" }
func (*portfoliosCmd) Usage() string {
	return `ltpctl portfolios [-f <file>]

  Prints the holdings of every portfolio. Without -f, PORTFOLIOS_FILE is
  used, and without that the built-in portfolios.
`
}

func (c *portfoliosCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", os.Getenv("PORTFOLIOS_FILE"), "portfolios JSON file")
}

func (c *portfoliosCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	portfolios, err := portfolio.LoadPortfolios(c.file)
	if err != nil {
		return fail(err)
	}
	printMarkdown(PortfoliosMarkdown(portfolios))
	return subcommands.ExitSuccess
}

type historyCmd struct {
	limit  int
	window int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the recorded PnL trend of a portfolio" }
func (*historyCmd) Usage() string {
	return `ltpctl history [-n <entries>] [-window <n>] <portfolio>

  Prints statistics and a moving average over the most recent history
  entries of a portfolio.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 100, "number of most recent entries to use")
	f.IntVar(&c.window, "window", history.DefaultTrendWindow, "moving average window")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one portfolio name")
		return subcommands.ExitUsageError
	}
	name := f.Arg(0)

	log := commandLogger(false)
	_, container, _, err := wire(ctx, true, log)
	if err != nil {
		return fail(err)
	}
	defer container.Close(log)

	if _, ok := portfolio.FindPortfolio(container.Portfolios, name); !ok {
		return fail(fmt.Errorf("unknown portfolio %q", name))
	}

	trend, err := container.HistoryService.Trend(ctx, name, c.limit, c.window)
	if err != nil {
		return fail(err)
	}
	printMarkdown(TrendMarkdown(trend))
	return subcommands.ExitSuccess
}

type backupCmd struct {
	list bool
}

func (*backupCmd) Name() string     { return "backup" }
func (*backupCmd) Synopsis() string { return "back up the history database to R2 now" }
func (*backupCmd) Usage() string {
	return `ltpctl backup [-list]

  Snapshots the history database, uploads the archive and rotates old
  archives. With -list, only lists the archives in the bucket.
`
}

func (c *backupCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "list backups instead of creating one")
}

func (c *backupCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	log := commandLogger(false)
	cfg, container, _, err := wire(ctx, true, log)
	if err != nil {
		return fail(err)
	}
	defer container.Close(log)

	if container.BackupService == nil {
		return fail(errors.New("backups are not configured (set R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET)"))
	}

	if !c.list {
		if err := container.BackupService.CreateAndUploadBackup(ctx); err != nil {
			return fail(err)
		}
		if err := container.BackupService.RotateOldBackups(ctx, cfg.Backup.RetentionDays); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: rotation failed: %v\n", err)
		}
	}

	backups, err := container.BackupService.ListBackups(ctx)
	if err != nil {
		return fail(err)
	}
	printMarkdown(BackupsMarkdown(backups))
	return subcommands.ExitSuccess
}
