package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fedragon/go-photofix/internal"
	"github.com/fedragon/go-photofix/internal/core"
	"github.com/fedragon/go-photofix/internal/logging"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	recursive := &cli.BoolFlag{
		Name:    "recursive",
		Aliases: []string{"r"},
		Usage:   "also process subdirectories",
	}
	onCollision := &cli.StringFlag{
		Name:    "on-collision",
		Value:   "skip",
		Usage:   "what to do when the new name is taken: skip or suffix",
		EnvVars: []string{"PHOTOFIX_ON_COLLISION"},
	}

	return &cli.App{
		Name:  "go-photofix",
		Usage: "Fix photo timestamps and get rid of live photo videos",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-dir",
				Value:   "~/.go-photofix/logs",
				Usage:   "directory of the weekday log files",
				EnvVars: []string{"PHOTOFIX_LOG_DIR"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug messages",
			},
			&cli.StringFlag{
				Name:    "journal",
				Value:   "~/.go-photofix/journal.db",
				Usage:   "path of the rename journal used by undo",
				EnvVars: []string{"PHOTOFIX_JOURNAL"},
			},
			&cli.BoolFlag{
				Name:  "no-journal",
				Usage: "do not record renames",
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "write run metrics to this file, in node_exporter textfile format",
				EnvVars: []string{"PHOTOFIX_METRICS_FILE"},
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "only log what would be done",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   time.Minute,
				Usage:   "maximum duration of a single exiftool/ffprobe call, 0 to wait forever",
				EnvVars: []string{"PHOTOFIX_TIMEOUT"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "fix-dates",
				Usage:     "copy DateTimeOriginal into DateTimeDigitized and rename photos to YYYYMMDD_HHMMSS_photo",
				ArgsUsage: "<directory>",
				Flags: []cli.Flag{
					recursive,
					onCollision,
					&cli.StringFlag{
						Name:  "reader",
						Value: internal.ExifToolReader,
						Usage: "how to read DateTimeOriginal: exiftool or native",
					},
				},
				Action: func(c *cli.Context) error {
					return withRunner(c, func(r *internal.Runner) error {
						return r.FixDates(c.Context, c.Args().First())
					})
				},
			},
			{
				Name:      "flag-short",
				Usage:     "mark videos shorter than the threshold for deletion",
				ArgsUsage: "<directory>",
				Flags: []cli.Flag{
					recursive,
					onCollision,
					&cli.Float64Flag{
						Name:    "threshold",
						Value:   core.DefaultThreshold,
						Usage:   "videos shorter than this many seconds are marked",
						EnvVars: []string{"PHOTOFIX_THRESHOLD"},
					},
					&cli.BoolFlag{
						Name:  "delete",
						Usage: "then delete everything marked for deletion",
					},
				},
				Action: func(c *cli.Context) error {
					return withRunner(c, func(r *internal.Runner) error {
						return r.FlagShort(c.Context, c.Args().First())
					})
				},
			},
			{
				Name:      "purge",
				Usage:     "delete files and directories marked for deletion, then empty directories",
				ArgsUsage: "<directory>",
				Action: func(c *cli.Context) error {
					return withRunner(c, func(r *internal.Runner) error {
						return r.Purge(c.Context, c.Args().First())
					})
				},
			},
			{
				Name:  "history",
				Usage: "list the runs recorded in the journal",
				Action: func(c *cli.Context) error {
					return withRunner(c, func(r *internal.Runner) error {
						return r.History(c.App.Writer)
					})
				},
			},
			{
				Name:  "undo",
				Usage: "revert the renames of a run (the latest by default)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "id of the run to revert, see history",
					},
				},
				Action: func(c *cli.Context) error {
					return withRunner(c, func(r *internal.Runner) error {
						return r.Undo(c.Context, c.String("run"))
					})
				},
			},
		},
	}
}

func withRunner(c *cli.Context, do func(*internal.Runner) error) error {
	logDir, err := homedir.Expand(c.String("log-dir"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger, closeLogger, err := logging.New(logDir, c.Bool("verbose"), time.Now())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() {
		if err := closeLogger(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	runner, err := internal.NewRunner(logger, configFrom(c))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if err := do(runner); err != nil {
		logger.Error("Run failed", zap.String("command", c.Command.Name), zap.Error(err))
		return cli.Exit("", 1)
	}

	return nil
}

func configFrom(c *cli.Context) internal.Config {
	config := internal.Config{
		JournalPath: c.String("journal"),
		NoJournal:   c.Bool("no-journal"),
		MetricsFile: c.String("metrics-file"),
		DryRun:      c.Bool("dry-run"),
		Timeout:     c.Duration("timeout"),
		Recursive:   c.Bool("recursive"),
		Reader:      internal.ExifToolReader,
		Threshold:   core.DefaultThreshold,
		Delete:      c.Bool("delete"),
		OnCollision: "skip",
	}

	if c.IsSet("reader") {
		config.Reader = c.String("reader")
	}
	if c.IsSet("threshold") {
		config.Threshold = c.Float64("threshold")
	}
	if c.IsSet("on-collision") {
		config.OnCollision = c.String("on-collision")
	}

	return config
}
