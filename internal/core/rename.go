package core

import (
	"time"

	"github.com/fedragon/go-photofix/internal/db"
	"github.com/fedragon/go-photofix/internal/fs"
	"github.com/fedragon/go-photofix/internal/models"

	"go.uber.org/zap"
)

// Renamer executes rename plans without ever overwriting a file, and journals every
// executed rename so that the run can be undone.
type Renamer struct {
	Journal db.Repository
	RunID   string
	Policy  fs.CollisionPolicy
	DryRun  bool
	Logger  *zap.Logger
}

// Apply executes plan and returns the path the file ended up at. When the file already
// sits at the resolved destination nothing is moved or journaled and Source is returned.
func (r *Renamer) Apply(pipeline string, plan models.RenamePlan) (string, error) {
	log := r.Logger.With(zap.String("source", plan.Source))

	target, err := fs.Resolve(plan.Source, plan.Destination, r.Policy)
	if err != nil {
		return "", err
	}
	if target == plan.Source {
		log.Debug("File already at its destination")
		return target, nil
	}

	if r.DryRun {
		log.Info("Would have renamed file", zap.String("dest", target), zap.String("reason", plan.Reason))
		return target, nil
	}

	target, err = fs.Rename(plan.Source, target, r.Policy)
	if err != nil {
		return "", err
	}
	log.Info("Renamed file", zap.String("dest", target), zap.String("reason", plan.Reason))

	hash, err := fs.Hash(target)
	if err != nil {
		log.Warn("Cannot hash renamed file, the rename will not be journaled", zap.String("dest", target), zap.Error(err))
		return target, nil
	}

	entry := models.JournalEntry{
		Source:      plan.Source,
		Destination: target,
		Hash:        hash,
		Pipeline:    pipeline,
		At:          time.Now(),
	}
	if err := r.Journal.Record(r.RunID, entry); err != nil {
		log.Warn("Cannot journal rename", zap.String("dest", target), zap.Error(err))
	}

	return target, nil
}
