package core

import (
	"context"

	"github.com/fedragon/go-photofix/internal/metrics"

	"go.uber.org/zap"
)

// Pipeline names, used as log fields, metric labels and journal tags.
const (
	FixDates  = "fix-dates"
	FlagShort = "flag-short"
	Purge     = "purge"
	Undo      = "undo"
)

// EXIF tags involved in the timestamp correction.
const (
	OriginalTag  = "DateTimeOriginal"
	DigitizedTag = "DateTimeDigitized"
)

type MetadataReader interface {
	// ReadTag returns the raw value of tag, or an empty string if the file has none.
	ReadTag(ctx context.Context, path string, tag string) (string, error)
}

type MetadataWriter interface {
	WriteTag(ctx context.Context, path string, tag string, value string) error
}

type DurationProber interface {
	// Duration returns the duration of the media file at path, in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

func logSummary(logger *zap.Logger, mx *metrics.Metrics, pipeline string, dryRun bool, outcomes ...string) {
	fields := []zap.Field{zap.String("pipeline", pipeline), zap.Bool("dry_run", dryRun)}
	for _, o := range outcomes {
		fields = append(fields, zap.Int(o, mx.Count(pipeline, o)))
	}
	logger.Info("Done", fields...)
}
