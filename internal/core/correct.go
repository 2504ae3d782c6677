package core

import (
	"context"

	"github.com/fedragon/go-photofix/internal/fs"
	"github.com/fedragon/go-photofix/internal/metrics"
	"github.com/fedragon/go-photofix/internal/models"

	"go.uber.org/zap"
)

// Corrector copies DateTimeOriginal into DateTimeDigitized and renames each photo after
// its capture time.
type Corrector struct {
	Reader    MetadataReader
	Writer    MetadataWriter
	Renamer   *Renamer
	Recursive bool
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

func (c *Corrector) Correct(ctx context.Context, root string) error {
	c.Logger.Info("Correcting photo timestamps", zap.String("root", root), zap.Bool("recursive", c.Recursive))

	for m := range fs.Walk(ctx, root, c.Recursive, fs.ImageTypes) {
		if ctx.Err() != nil {
			break
		}

		if m.Err != nil {
			c.Logger.Error("Cannot read path", zap.String("path", m.Path), zap.Error(m.Err))
			c.Metrics.Increment(FixDates, metrics.Failed)
			continue
		}

		c.Metrics.Increment(FixDates, c.correct(ctx, m))
	}

	logSummary(c.Logger, c.Metrics, FixDates, c.Renamer.DryRun, metrics.Renamed, metrics.Skipped, metrics.Failed)

	return ctx.Err()
}

func (c *Corrector) correct(ctx context.Context, m models.MediaFile) string {
	log := c.Logger.With(zap.String("path", m.Path))

	stop := c.Metrics.Record("exif-read")
	raw, err := c.Reader.ReadTag(ctx, m.Path, OriginalTag)
	stop()
	if err != nil {
		log.Warn("Cannot read timestamp, skipping file", zap.Error(err))
		return metrics.Skipped
	}

	ts, ok := ParseTimestamp(raw)
	if !ok {
		log.Warn("No valid DateTimeOriginal, skipping file", zap.String("value", raw))
		return metrics.Skipped
	}

	plan, _ := PlanCorrection(ts, m.Path)

	if c.Renamer.DryRun {
		log.Info("Would have written metadata", zap.String("tag", DigitizedTag), zap.String("value", ts.String()))
	} else {
		stop := c.Metrics.Record("exif-write")
		err := c.Writer.WriteTag(ctx, m.Path, DigitizedTag, ts.String())
		stop()
		if err != nil {
			log.Error("Cannot write metadata, file left as is", zap.String("tag", DigitizedTag), zap.Error(err))
			return metrics.Failed
		}
		log.Debug("Wrote metadata", zap.String("tag", DigitizedTag), zap.String("value", ts.String()))
	}

	if plan.Noop() {
		log.Debug("File already named after its timestamp")
		return metrics.Skipped
	}

	// metadata stays corrected even if the rename fails
	target, err := c.Renamer.Apply(FixDates, plan)
	if err != nil {
		log.Error("Cannot rename file, metadata was corrected", zap.String("dest", plan.Destination), zap.Error(err))
		return metrics.Failed
	}
	if target == m.Path {
		return metrics.Skipped
	}

	return metrics.Renamed
}
