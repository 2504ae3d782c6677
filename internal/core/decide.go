package core

import (
	"math"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fedragon/go-photofix/internal/models"
)

var timestampPattern = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}$`)

// ParseTimestamp parses an EXIF date/time. Anything not matching "YYYY:MM:DD HH:MM:SS",
// including the all-zero placeholder some cameras write, yields no record.
func ParseTimestamp(raw string) (*models.TimestampRecord, bool) {
	if !timestampPattern.MatchString(raw) {
		return nil, false
	}

	t, err := time.ParseInLocation(models.TimestampLayout, raw, time.UTC)
	if err != nil {
		return nil, false
	}

	return &models.TimestampRecord{Time: t}, true
}

// DurationOf wraps a probed duration; negative or NaN values yield no record.
func DurationOf(seconds float64) (*models.DurationRecord, bool) {
	if math.IsNaN(seconds) || seconds < 0 {
		return nil, false
	}

	return &models.DurationRecord{Seconds: seconds}, true
}

// CorrectionName is the name a photo taken at ts gets: 20230501_123000_photo.jpg.
func CorrectionName(ts models.TimestampRecord, ext string) string {
	return ts.Time.Format("20060102_150405") + "_photo" + ext
}

// MarkedName is the name a short video created at t gets: z_DELETE_20230501123000.mov.
func MarkedName(t time.Time, ext string) string {
	return models.DeletionMarker + t.Format("20060102150405") + ext
}

// PlanCorrection decides where a photo goes once its DateTimeDigitized mirrors ts.
// Without a timestamp there is nothing to do.
func PlanCorrection(ts *models.TimestampRecord, path string) (models.RenamePlan, bool) {
	if ts == nil {
		return models.RenamePlan{}, false
	}

	return models.RenamePlan{
		Source:      path,
		Destination: filepath.Join(filepath.Dir(path), CorrectionName(*ts, filepath.Ext(path))),
		Reason:      "DateTimeOriginal " + ts.String(),
	}, true
}

// PlanFlag decides whether a video is short enough to be marked for deletion. Videos
// without a duration, lasting at least threshold seconds or already marked are left alone.
func PlanFlag(d *models.DurationRecord, file models.MediaFile, threshold float64) (models.RenamePlan, bool) {
	if d == nil || file.Marked() || !(d.Seconds < threshold) {
		return models.RenamePlan{}, false
	}

	ext := file.Ext
	if ext == "" {
		ext = filepath.Ext(file.Path)
	}

	return models.RenamePlan{
		Source:      file.Path,
		Destination: filepath.Join(filepath.Dir(file.Path), MarkedName(file.CreatedAt, ext)),
		Reason:      "shorter than threshold",
	}, true
}
