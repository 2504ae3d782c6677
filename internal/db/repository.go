package db

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fedragon/go-photofix/internal/models"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

var ErrRunNotFound = errors.New("run not found")

// Repository is the rename journal. Each run gets its own bucket, named after its
// (time-ordered) ID, holding one entry per executed rename.
type Repository interface {
	Record(runID string, entry models.JournalEntry) error
	// Runs lists recorded runs, newest first.
	Runs() ([]models.Run, error)
	// Entries lists the entries of a run in the order they were recorded.
	Entries(runID string) ([]models.JournalEntry, error)
	Forget(runID string) error
}

type BoltRepository struct {
	db     *bolt.DB
	logger *zap.Logger
}

func NewRepository(db *bolt.DB, logger *zap.Logger) (Repository, error) {
	if err := Init(db); err != nil {
		return nil, err
	}

	return &BoltRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *BoltRepository) Record(runID string, entry models.JournalEntry) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		run, err := tx.Bucket(bucketName).CreateBucketIfNotExists([]byte(runID))
		if err != nil {
			return err
		}

		seq, err := run.NextSequence()
		if err != nil {
			return err
		}

		marshalled, err := json.Marshal(&entry)
		if err != nil {
			return err
		}

		return run.Put(itob(seq), marshalled)
	})
}

func (r *BoltRepository) Runs() ([]models.Run, error) {
	var runs []models.Run

	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if v != nil {
				r.logger.Warn("Unexpected value in journal", zap.ByteString("key", k))
				continue
			}

			run := models.Run{ID: string(k)}
			b := tx.Bucket(bucketName).Bucket(k)
			run.Entries = b.Stats().KeyN

			if _, first := b.Cursor().First(); first != nil {
				var entry models.JournalEntry
				if err := json.Unmarshal(first, &entry); err != nil {
					return err
				}
				run.Pipeline = entry.Pipeline
			}

			runs = append(runs, run)
		}

		return nil
	})

	return runs, err
}

func (r *BoltRepository) Entries(runID string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry

	err := r.db.View(func(tx *bolt.Tx) error {
		run := tx.Bucket(bucketName).Bucket([]byte(runID))
		if run == nil {
			return fmt.Errorf("%v: %w", runID, ErrRunNotFound)
		}

		return run.ForEach(func(_, v []byte) error {
			var entry models.JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}

			entries = append(entries, entry)
			return nil
		})
	})

	return entries, err
}

func (r *BoltRepository) Forget(runID string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketName).DeleteBucket([]byte(runID))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("%v: %w", runID, ErrRunNotFound)
		}
		return err
	})
}

type noRepository struct{}

// NoRepository returns a journal that records nothing.
func NoRepository() Repository {
	return noRepository{}
}

func (noRepository) Record(string, models.JournalEntry) error { return nil }

func (noRepository) Runs() ([]models.Run, error) { return nil, nil }

func (noRepository) Entries(runID string) ([]models.JournalEntry, error) {
	return nil, fmt.Errorf("%v: %w", runID, ErrRunNotFound)
}

func (noRepository) Forget(runID string) error {
	return fmt.Errorf("%v: %w", runID, ErrRunNotFound)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
