package core

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/fedragon/go-photofix/internal/fs"
	"github.com/fedragon/go-photofix/internal/metrics"
	"github.com/fedragon/go-photofix/internal/models"

	"go.uber.org/zap"
)

// Purger deletes whatever carries the deletion marker under a root, then removes the
// directories left empty. Hidden entries are never touched.
type Purger struct {
	DryRun  bool
	// Staged lists files a dry-run flagging would have marked; a dry run counts them as
	// marked since they still carry their old names.
	Staged  []string
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (p *Purger) Purge(ctx context.Context, root string) error {
	p.Logger.Info("Purging files marked for deletion", zap.String("root", root))

	// WalkDir does not follow a symlinked root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	staged := make(map[string]bool)
	if p.DryRun {
		for _, path := range p.Staged {
			if resolved, err := filepath.EvalSymlinks(path); err == nil {
				path = resolved
			}
			staged[path] = true
		}
	}

	gone := make(map[string]bool)
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if d == nil || path == root {
				return err
			}

			p.Logger.Error("Cannot read path", zap.String("path", path), zap.Error(err))
			p.Metrics.Increment(Purge, metrics.Failed)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if fs.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if models.IsMarked(path) || staged[path] {
			if p.remove(path, d.IsDir()) {
				gone[path] = true
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			dirs = append(dirs, path)
		}

		return nil
	})
	if err != nil {
		return err
	}

	// children come after their parents in walk order
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := dirs[i]
		entries, err := os.ReadDir(dir)
		if err != nil {
			p.Logger.Error("Cannot read directory", zap.String("path", dir), zap.Error(err))
			p.Metrics.Increment(Purge, metrics.Failed)
			continue
		}

		if !empty(dir, entries, gone) {
			continue
		}

		if p.remove(dir, true) {
			gone[dir] = true
		}
	}

	logSummary(p.Logger, p.Metrics, Purge, p.DryRun, metrics.Removed, metrics.Failed)

	return nil
}

// remove deletes path (recursively for directories) and reports whether it is gone.
func (p *Purger) remove(path string, dir bool) bool {
	log := p.Logger.With(zap.String("path", path), zap.Bool("dir", dir))

	if p.DryRun {
		log.Info("Would have removed")
		p.Metrics.Increment(Purge, metrics.Removed)
		return true
	}

	var err error
	if dir && models.IsMarked(path) {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		log.Error("Cannot remove", zap.Error(err))
		p.Metrics.Increment(Purge, metrics.Failed)
		return false
	}

	log.Info("Removed")
	p.Metrics.Increment(Purge, metrics.Removed)
	return true
}

// empty reports whether dir has no entries left once everything in gone is removed.
func empty(dir string, entries []os.DirEntry, gone map[string]bool) bool {
	for _, e := range entries {
		if !gone[filepath.Join(dir, e.Name())] {
			return false
		}
	}
	return true
}
