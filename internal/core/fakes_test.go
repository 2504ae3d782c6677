package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fedragon/go-photofix/internal/db"
	"github.com/fedragon/go-photofix/internal/fs"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errTool = errors.New("tool failed")

// fakeReader maps file names to DateTimeOriginal values; unknown names fail.
type fakeReader map[string]string

func (r fakeReader) ReadTag(_ context.Context, path string, tag string) (string, error) {
	if tag != OriginalTag {
		return "", errors.New("unexpected tag " + tag)
	}
	v, ok := r[filepath.Base(path)]
	if !ok {
		return "", errTool
	}
	return v, nil
}

type fakeWriter struct {
	written map[string]string
	fail    map[string]bool
}

func newFakeWriter(failing ...string) *fakeWriter {
	w := &fakeWriter{written: make(map[string]string), fail: make(map[string]bool)}
	for _, name := range failing {
		w.fail[name] = true
	}
	return w
}

func (w *fakeWriter) WriteTag(_ context.Context, path string, tag string, value string) error {
	if w.fail[filepath.Base(path)] {
		return errTool
	}
	w.written[filepath.Base(path)] = tag + "=" + value
	return nil
}

// fakeProber maps file names to durations; unknown names fail.
type fakeProber struct {
	durations map[string]float64
	probed    []string
}

func (p *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	name := filepath.Base(path)
	p.probed = append(p.probed, name)
	d, ok := p.durations[name]
	if !ok {
		return 0, errTool
	}
	return d, nil
}

func touch(t *testing.T, root string, rel string) string {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))

	return path
}

func names(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func newRenamer(t *testing.T, journal db.Repository, dryRun bool) *Renamer {
	t.Helper()

	return &Renamer{
		Journal: journal,
		RunID:   "run-1",
		Policy:  fs.Skip,
		DryRun:  dryRun,
		Logger:  zaptest.NewLogger(t),
	}
}

func newJournal(t *testing.T) db.Repository {
	t.Helper()

	dbase, err := db.Connect(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbase.Close() })

	repo, err := db.NewRepository(dbase, zaptest.NewLogger(t))
	require.NoError(t, err)

	return repo
}
