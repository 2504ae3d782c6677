package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fedragon/go-photofix/internal/core"
	dedb "github.com/fedragon/go-photofix/internal/db"
	"github.com/fedragon/go-photofix/internal/fs"
	"github.com/fedragon/go-photofix/internal/metrics"
	"github.com/fedragon/go-photofix/internal/tools"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

const (
	ExifToolReader = "exiftool"
	NativeReader   = "native"
)

type Config struct {
	JournalPath string
	NoJournal   bool
	MetricsFile string
	DryRun      bool
	Timeout     time.Duration
	Recursive   bool
	Reader      string
	Threshold   float64
	Delete      bool
	OnCollision string
}

func (c Config) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", c.Threshold)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	if c.Reader != ExifToolReader && c.Reader != NativeReader {
		return fmt.Errorf("unknown reader %q (expected %q or %q)", c.Reader, ExifToolReader, NativeReader)
	}
	if _, err := fs.ParseCollisionPolicy(c.OnCollision); err != nil {
		return err
	}
	return nil
}

type Runner struct {
	logger *zap.Logger
	config Config
}

func NewRunner(logger *zap.Logger, config Config) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Runner{
		logger: logger,
		config: config,
	}, nil
}

func (r *Runner) FixDates(ctx context.Context, directory string) error {
	return r.run(core.FixDates, directory, func(root string, renamer *core.Renamer, mx *metrics.Metrics) error {
		exifTool := tools.NewExifTool(r.config.Timeout)
		if !(r.config.DryRun && r.config.Reader == NativeReader) {
			binary, err := tools.Lookup(exifTool.Binary)
			if err != nil {
				return err
			}
			exifTool.Binary = binary
		}

		var reader core.MetadataReader = exifTool
		if r.config.Reader == NativeReader {
			reader = tools.NativeReader{}
		}

		c := &core.Corrector{
			Reader:    reader,
			Writer:    exifTool,
			Renamer:   renamer,
			Recursive: r.config.Recursive,
			Metrics:   mx,
			Logger:    r.logger,
		}

		return c.Correct(ctx, root)
	})
}

func (r *Runner) FlagShort(ctx context.Context, directory string) error {
	return r.run(core.FlagShort, directory, func(root string, renamer *core.Renamer, mx *metrics.Metrics) error {
		prober := tools.NewFFProbe(r.config.Timeout)
		binary, err := tools.Lookup(prober.Binary)
		if err != nil {
			return err
		}
		prober.Binary = binary

		f := &core.Flagger{
			Prober:    prober,
			Threshold: r.config.Threshold,
			Renamer:   renamer,
			Recursive: r.config.Recursive,
			Metrics:   mx,
			Logger:    r.logger,
		}
		if err := f.Flag(ctx, root); err != nil {
			return err
		}

		if !r.config.Delete {
			return nil
		}

		p := &core.Purger{DryRun: r.config.DryRun, Metrics: mx, Logger: r.logger}
		if r.config.DryRun {
			p.Staged = f.Staged()
		}
		return p.Purge(ctx, root)
	})
}

func (r *Runner) Purge(ctx context.Context, directory string) error {
	return r.run(core.Purge, directory, func(root string, _ *core.Renamer, mx *metrics.Metrics) error {
		p := &core.Purger{DryRun: r.config.DryRun, Metrics: mx, Logger: r.logger}
		return p.Purge(ctx, root)
	})
}

func (r *Runner) Undo(ctx context.Context, runID string) error {
	journal, closeJournal, err := r.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	mx := metrics.NewMetrics()
	defer r.writeMetrics(mx)

	u := &core.Undoer{Journal: journal, DryRun: r.config.DryRun, Metrics: mx, Logger: r.logger}
	return u.Undo(ctx, runID)
}

// History prints the journaled runs, newest first.
func (r *Runner) History(w io.Writer) error {
	journal, closeJournal, err := r.openJournal()
	if err != nil {
		return err
	}
	defer closeJournal()

	runs, err := journal.Runs()
	if err != nil {
		return err
	}

	for _, run := range runs {
		started := ""
		if id, err := uuid.Parse(run.ID); err == nil && id.Version() == 7 {
			sec, nsec := id.Time().UnixTime()
			started = time.Unix(sec, nsec).Format(time.DateTime)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%-10s\t%d renames\n", run.ID, started, run.Pipeline, run.Entries); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) run(pipeline string, directory string, do func(string, *core.Renamer, *metrics.Metrics) error) error {
	start := time.Now()
	defer func() {
		r.logger.Info("Elapsed time", zap.Duration("elapsed", time.Since(start)))
	}()

	if r.config.DryRun {
		r.logger.Info("Running in DRY-RUN mode: files will not be modified")
	}

	root, err := ResolveDirectory(directory)
	if err != nil {
		return err
	}

	journal := dedb.NoRepository()
	if !r.config.DryRun {
		j, closeJournal, err := r.openJournal()
		if err != nil {
			return err
		}
		defer closeJournal()
		journal = j
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	r.logger = r.logger.With(zap.String("run_id", runID.String()))

	policy, _ := fs.ParseCollisionPolicy(r.config.OnCollision)
	renamer := &core.Renamer{
		Journal: journal,
		RunID:   runID.String(),
		Policy:  policy,
		DryRun:  r.config.DryRun,
		Logger:  r.logger,
	}

	mx := metrics.NewMetrics()
	defer r.writeMetrics(mx)

	r.logger.Info("Starting", zap.String("pipeline", pipeline), zap.String("root", root))
	return do(root, renamer, mx)
}

func (r *Runner) openJournal() (dedb.Repository, func(), error) {
	if r.config.NoJournal {
		return dedb.NoRepository(), func() {}, nil
	}

	path, err := homedir.Expand(r.config.JournalPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := dedb.Connect(path)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := db.Close(); err != nil {
			r.logger.Info(err.Error())
		}
	}

	repo, err := dedb.NewRepository(db, r.logger)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return repo, closer, nil
}

func (r *Runner) writeMetrics(mx *metrics.Metrics) {
	if r.config.MetricsFile == "" {
		return
	}

	path, err := homedir.Expand(r.config.MetricsFile)
	if err == nil {
		err = mx.WriteTextfile(path)
	}
	if err != nil {
		r.logger.Warn("Cannot write metrics file", zap.String("path", r.config.MetricsFile), zap.Error(err))
	}
}

// ResolveDirectory expands a leading ~, makes the path absolute and checks that the result is an existing directory.
func ResolveDirectory(directory string) (string, error) {
	if strings.TrimSpace(directory) == "" {
		return "", errors.New("missing directory")
	}

	path, err := homedir.Expand(directory)
	if err != nil {
		return "", err
	}
	// relative names may start with "-" and would reach the tools as options
	if path, err = filepath.Abs(path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%v is not a directory", path)
	}

	return path, nil
}
