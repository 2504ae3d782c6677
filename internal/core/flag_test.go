package core

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fedragon/go-photofix/internal/db"
	"github.com/fedragon/go-photofix/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newFlagger(t *testing.T, prober DurationProber, renamer *Renamer, mx *metrics.Metrics) *Flagger {
	t.Helper()

	return &Flagger{
		Prober:    prober,
		Threshold: DefaultThreshold,
		Renamer:   renamer,
		Metrics:   mx,
		Logger:    zaptest.NewLogger(t),
	}
}

func marked(t *testing.T, dir string) []string {
	t.Helper()

	var out []string
	for _, name := range names(t, dir) {
		if strings.HasPrefix(name, "z_DELETE_") {
			out = append(out, name)
		}
	}
	return out
}

func TestFlag(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "live.MOV")
	touch(t, root, "movie.mp4")
	touch(t, root, "exact.mov")
	touch(t, root, "corrupt.mov")
	touch(t, root, "z_DELETE_20230101000000.mov")
	touch(t, root, ".hidden.mov")
	touch(t, root, "photo.jpg")

	prober := &fakeProber{durations: map[string]float64{
		"live.MOV":  2.4,
		"movie.mp4": 120,
		"exact.mov": 4,
	}}
	mx := metrics.NewMetrics()

	f := newFlagger(t, prober, newRenamer(t, db.NoRepository(), false), mx)
	require.NoError(t, f.Flag(context.Background(), root))

	flagged := marked(t, root)
	require.Len(t, flagged, 2)
	assert.Contains(t, flagged, "z_DELETE_20230101000000.mov")
	for _, name := range flagged {
		if name != "z_DELETE_20230101000000.mov" {
			assert.Equal(t, ".MOV", filepath.Ext(name))
			assert.Len(t, name, len("z_DELETE_20060102150405.MOV"))
		}
	}

	assert.NotContains(t, names(t, root), "live.MOV")
	assert.Contains(t, names(t, root), "movie.mp4")
	assert.Contains(t, names(t, root), "exact.mov")
	assert.Contains(t, names(t, root), "corrupt.mov")
	assert.NotContains(t, prober.probed, "z_DELETE_20230101000000.mov")
	assert.NotContains(t, prober.probed, ".hidden.mov")

	assert.Equal(t, 1, mx.Count(FlagShort, metrics.Marked))
	assert.Equal(t, 4, mx.Count(FlagShort, metrics.Skipped))
}

func TestFlagIsIdempotent(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "live.mov")

	prober := &fakeProber{durations: map[string]float64{"live.mov": 1}}

	first := metrics.NewMetrics()
	require.NoError(t, newFlagger(t, prober, newRenamer(t, db.NoRepository(), false), first).Flag(context.Background(), root))
	after := names(t, root)
	require.Len(t, marked(t, root), 1)

	prober.probed = nil
	second := metrics.NewMetrics()
	require.NoError(t, newFlagger(t, prober, newRenamer(t, db.NoRepository(), false), second).Flag(context.Background(), root))

	assert.Equal(t, after, names(t, root))
	assert.Empty(t, prober.probed)
	assert.Equal(t, 0, second.Count(FlagShort, metrics.Marked))
	assert.Equal(t, 1, second.Count(FlagShort, metrics.Skipped))
}

func TestFlagWithoutDurationDoesNothing(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "corrupt.mov")

	mx := metrics.NewMetrics()
	f := newFlagger(t, &fakeProber{}, newRenamer(t, db.NoRepository(), false), mx)
	require.NoError(t, f.Flag(context.Background(), root))

	assert.Equal(t, []string{"corrupt.mov"}, names(t, root))
	assert.Equal(t, 0, mx.Count(FlagShort, metrics.Marked))
	assert.Equal(t, 0, mx.Count(FlagShort, metrics.Failed))
}

func TestFlagDryRun(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "live.mov")

	mx := metrics.NewMetrics()
	f := newFlagger(t, &fakeProber{durations: map[string]float64{"live.mov": 1}}, newRenamer(t, db.NoRepository(), true), mx)
	require.NoError(t, f.Flag(context.Background(), root))

	assert.Equal(t, []string{"live.mov"}, names(t, root))
	assert.Equal(t, 1, mx.Count(FlagShort, metrics.Marked))
}

func TestFlagCustomThreshold(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "clip.mov")

	f := newFlagger(t, &fakeProber{durations: map[string]float64{"clip.mov": 3.5}}, newRenamer(t, db.NoRepository(), false), metrics.NewMetrics())
	f.Threshold = 3
	require.NoError(t, f.Flag(context.Background(), root))

	assert.Equal(t, []string{"clip.mov"}, names(t, root))
}
