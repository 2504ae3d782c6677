package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fedragon/go-photofix/internal/db"
	"github.com/fedragon/go-photofix/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func purgeTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	touch(t, root, "z_DELETE_20230501123000.mov")
	touch(t, root, "keep.jpg")
	touch(t, root, "only-marked/z_DELETE_20230501123001.mov")
	touch(t, root, "nested/deeper/z_DELETE_20230501123002.mp4")
	touch(t, root, "z_DELETE_album/photo.jpg")
	touch(t, root, "other/keep.mov")
	touch(t, root, ".hidden/z_DELETE_20230501123003.mov")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	return root
}

func TestPurge(t *testing.T) {
	root := purgeTree(t)
	mx := metrics.NewMetrics()

	p := &Purger{Metrics: mx, Logger: zaptest.NewLogger(t)}
	require.NoError(t, p.Purge(context.Background(), root))

	assert.ElementsMatch(t, []string{"keep.jpg", "other", ".hidden"}, names(t, root))
	assert.Equal(t, []string{"keep.mov"}, names(t, filepath.Join(root, "other")))
	assert.Equal(t, []string{"z_DELETE_20230501123003.mov"}, names(t, filepath.Join(root, ".hidden")))

	// 4 marked entries, then only-marked, nested/deeper, nested and empty
	assert.Equal(t, 8, mx.Count(Purge, metrics.Removed))
	assert.Equal(t, 0, mx.Count(Purge, metrics.Failed))
}

func TestPurgeDryRun(t *testing.T) {
	root := purgeTree(t)
	before := names(t, root)
	mx := metrics.NewMetrics()

	p := &Purger{DryRun: true, Metrics: mx, Logger: zaptest.NewLogger(t)}
	require.NoError(t, p.Purge(context.Background(), root))

	assert.Equal(t, before, names(t, root))
	assert.Equal(t, 8, mx.Count(Purge, metrics.Removed))
}

func TestPurgeNeverRemovesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "z_DELETE_root")
	touch(t, root, "z_DELETE_20230501123000.mov")

	p := &Purger{Metrics: metrics.NewMetrics(), Logger: zaptest.NewLogger(t)}
	require.NoError(t, p.Purge(context.Background(), root))

	assert.DirExists(t, root)
	assert.Empty(t, names(t, root))
}

func TestPurgeMissingRoot(t *testing.T) {
	p := &Purger{Metrics: metrics.NewMetrics(), Logger: zaptest.NewLogger(t)}
	assert.Error(t, p.Purge(context.Background(), filepath.Join(t.TempDir(), "missing")))
}

func TestPurgeFollowsSymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	touch(t, target, "z_DELETE_20230501123000.mov")
	touch(t, target, "keep.mov")

	link := filepath.Join(t.TempDir(), "Videos")
	if err := os.Symlink(target, link); err != nil {
		t.Skip("symlinks not supported:", err)
	}

	mx := metrics.NewMetrics()
	p := &Purger{Metrics: mx, Logger: zaptest.NewLogger(t)}
	require.NoError(t, p.Purge(context.Background(), link))

	assert.Equal(t, []string{"keep.mov"}, names(t, target))
	assert.Equal(t, 1, mx.Count(Purge, metrics.Removed))
}

func TestFlagThenPurge(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "live.mov")
	touch(t, root, "movie.mp4")
	touch(t, root, "burst/live.mov")
	touch(t, root, "IMG_0001.jpg")

	prober := &fakeProber{durations: map[string]float64{"live.mov": 1.5, "movie.mp4": 60}}
	mx := metrics.NewMetrics()

	f := newFlagger(t, prober, newRenamer(t, db.NoRepository(), false), mx)
	f.Recursive = true
	require.NoError(t, f.Flag(context.Background(), root))
	require.Len(t, marked(t, root), 1)

	p := &Purger{Metrics: mx, Logger: zaptest.NewLogger(t)}
	require.NoError(t, p.Purge(context.Background(), root))

	assert.ElementsMatch(t, []string{"movie.mp4", "IMG_0001.jpg"}, names(t, root))
	assert.Equal(t, 2, mx.Count(FlagShort, metrics.Marked))
	// two marked videos, then the burst directory they leave empty
	assert.Equal(t, 3, mx.Count(Purge, metrics.Removed))
}

func TestFlagThenPurgeDryRun(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "live.mov")
	touch(t, root, "movie.mp4")
	touch(t, root, "burst/live.mov")
	before := names(t, root)

	prober := &fakeProber{durations: map[string]float64{"live.mov": 1.5, "movie.mp4": 60}}
	mx := metrics.NewMetrics()

	f := newFlagger(t, prober, newRenamer(t, db.NoRepository(), true), mx)
	f.Recursive = true
	require.NoError(t, f.Flag(context.Background(), root))
	require.Len(t, f.Staged(), 2)

	p := &Purger{DryRun: true, Staged: f.Staged(), Metrics: mx, Logger: zaptest.NewLogger(t)}
	require.NoError(t, p.Purge(context.Background(), root))

	assert.Equal(t, before, names(t, root))
	assert.Equal(t, 3, mx.Count(Purge, metrics.Removed))
}
