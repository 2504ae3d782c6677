package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/fedragon/go-photofix/internal/db"
	"github.com/fedragon/go-photofix/internal/fs"
	"github.com/fedragon/go-photofix/internal/metrics"
	"github.com/fedragon/go-photofix/internal/models"

	"go.uber.org/zap"
)

var (
	ErrNothingToUndo  = errors.New("the journal is empty")
	ErrContentChanged = errors.New("file changed since it was renamed")
)

// Undoer reverts the renames recorded for a run, newest first. Metadata writes are not
// reverted.
type Undoer struct {
	Journal db.Repository
	DryRun  bool
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Undo reverts runID, or the latest run when runID is empty. A run is dropped from the
// journal once all its entries are reverted.
func (u *Undoer) Undo(ctx context.Context, runID string) error {
	if runID == "" {
		runs, err := u.Journal.Runs()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return ErrNothingToUndo
		}
		runID = runs[0].ID
	}

	entries, err := u.Journal.Entries(runID)
	if err != nil {
		return err
	}

	log := u.Logger.With(zap.String("run_id", runID))
	log.Info("Undoing run", zap.Int("renames", len(entries)))

	var failed int
	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := entries[i]
		if err := u.revert(e); err != nil {
			log.Error("Cannot revert rename",
				zap.String("source", e.Source),
				zap.String("dest", e.Destination),
				zap.Error(err),
			)
			u.Metrics.Increment(Undo, metrics.Failed)
			failed++
			continue
		}

		u.Metrics.Increment(Undo, metrics.Reverted)
	}

	logSummary(u.Logger, u.Metrics, Undo, u.DryRun, metrics.Reverted, metrics.Failed)

	if u.DryRun {
		return nil
	}
	if failed > 0 {
		log.Warn("Run kept in the journal, some renames could not be reverted", zap.Int("failed", failed))
		return nil
	}

	return u.Journal.Forget(runID)
}

func (u *Undoer) revert(e models.JournalEntry) error {
	hash, err := fs.Hash(e.Destination)
	if err != nil {
		// a previous, partial undo may already have moved it back
		if back, hashErr := fs.Hash(e.Source); hashErr == nil && back == e.Hash {
			u.Logger.Debug("Rename already reverted", zap.String("source", e.Source))
			return nil
		}
		return fmt.Errorf("renamed file is not readable: %w", err)
	}

	if hash != e.Hash {
		return fmt.Errorf("%v: %w", e.Destination, ErrContentChanged)
	}

	if u.DryRun {
		if _, err := fs.Resolve(e.Destination, e.Source, fs.Skip); err != nil {
			return err
		}
		u.Logger.Info("Would have renamed file", zap.String("source", e.Destination), zap.String("dest", e.Source))
		return nil
	}

	if _, err := fs.Rename(e.Destination, e.Source, fs.Skip); err != nil {
		return err
	}
	u.Logger.Info("Renamed file", zap.String("source", e.Destination), zap.String("dest", e.Source))

	return nil
}
