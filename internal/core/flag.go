package core

import (
	"context"

	"github.com/fedragon/go-photofix/internal/fs"
	"github.com/fedragon/go-photofix/internal/metrics"
	"github.com/fedragon/go-photofix/internal/models"

	"go.uber.org/zap"
)

const DefaultThreshold = 4.0

// Flagger marks videos shorter than Threshold seconds for deletion by renaming them
// with the deletion marker.
type Flagger struct {
	Prober    DurationProber
	Threshold float64
	Renamer   *Renamer
	Recursive bool
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	staged []string
}

func (f *Flagger) Flag(ctx context.Context, root string) error {
	f.Logger.Info("Flagging short videos",
		zap.String("root", root),
		zap.Float64("threshold", f.Threshold),
		zap.Bool("recursive", f.Recursive),
	)

	f.staged = nil
	for m := range fs.Walk(ctx, root, f.Recursive, fs.VideoTypes) {
		if ctx.Err() != nil {
			break
		}

		if m.Err != nil {
			f.Logger.Error("Cannot read path", zap.String("path", m.Path), zap.Error(m.Err))
			f.Metrics.Increment(FlagShort, metrics.Failed)
			continue
		}

		f.Metrics.Increment(FlagShort, f.flag(ctx, m))
	}

	logSummary(f.Logger, f.Metrics, FlagShort, f.Renamer.DryRun, metrics.Marked, metrics.Skipped, metrics.Failed)

	return ctx.Err()
}

// Staged returns the paths of the videos marked by the last Flag call, as they were
// named before marking.
func (f *Flagger) Staged() []string {
	return f.staged
}

func (f *Flagger) flag(ctx context.Context, m models.MediaFile) string {
	log := f.Logger.With(zap.String("path", m.Path))

	if m.Marked() {
		log.Debug("Already marked for deletion")
		return metrics.Skipped
	}

	stop := f.Metrics.Record("ffprobe")
	seconds, err := f.Prober.Duration(ctx, m.Path)
	stop()
	if err != nil {
		log.Warn("Cannot read video duration, skipping file", zap.Error(err))
		return metrics.Skipped
	}

	d, ok := DurationOf(seconds)
	if !ok {
		log.Warn("Invalid video duration, skipping file", zap.Float64("duration", seconds))
		return metrics.Skipped
	}

	plan, ok := PlanFlag(d, m, f.Threshold)
	if !ok {
		log.Debug("Not a short video", zap.Float64("duration", seconds))
		return metrics.Skipped
	}

	target, err := f.Renamer.Apply(FlagShort, plan)
	if err != nil {
		log.Error("Cannot mark file for deletion", zap.String("dest", plan.Destination), zap.Error(err))
		return metrics.Failed
	}
	if target == m.Path {
		return metrics.Skipped
	}
	f.staged = append(f.staged, m.Path)

	return metrics.Marked
}
