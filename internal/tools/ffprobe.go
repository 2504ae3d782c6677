package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// FFProbe reads container durations with ffprobe.
type FFProbe struct {
	Binary  string
	Timeout time.Duration
}

func NewFFProbe(timeout time.Duration) *FFProbe {
	return &FFProbe{Binary: "ffprobe", Timeout: timeout}
}

// Duration returns the duration of the media file at path, in seconds.
func (p *FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	out, err := run(ctx, p.Timeout, p.Binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		fileArg(path),
	)
	if err != nil {
		return 0, err
	}

	return ParseDuration(out)
}

// ParseDuration parses ffprobe's plain duration output, e.g. "2.966667".
func ParseDuration(out []byte) (float64, error) {
	s := firstLine(out)
	if s == "" {
		return 0, fmt.Errorf("no duration reported")
	}

	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected duration %q: %w", s, err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("unexpected duration %q", s)
	}

	return d, nil
}
