package ledger

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

var _ Store = (*BboltStore)(nil)

// BboltStore keeps the checkpoint in a bbolt database, one key per stream
// with the status literal as the value. Useful for projects with enough
// streams that rewriting a JSON file on every checkpoint gets expensive.
type BboltStore struct {
	db     *bbolt.DB
	bucket string
}

// NewBboltStore creates a BboltStore based on configuration
func NewBboltStore(cfg *config.BboltLedgerConfig) (*BboltStore, error) {
	// Apply defaults to ensure required values are set
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bbolt config: %w", err)
	}

	db, err := bbolt.Open(cfg.Path, cfg.Mode, nil)
	if err != nil {
		return nil, err
	}
	db.NoSync = cfg.NoSync

	// Create bucket if not exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BboltStore{
		db:     db,
		bucket: cfg.Bucket,
	}, nil
}

func (s *BboltStore) Close() error {
	return s.db.Close()
}

func (s *BboltStore) Load() (map[model.StreamID]model.Status, error) {
	snapshot := make(map[model.StreamID]model.Status)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(s.bucket))
		if b == nil {
			return ErrBucketNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			status, err := model.ParseStatus(string(v))
			if err != nil {
				return fmt.Errorf("stream %s: %w", k, err)
			}
			snapshot[model.StreamID(k)] = status
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: bucket %s is empty", ErrNoCheckpoint, s.bucket)
	}

	return snapshot, nil
}

// Save replaces the whole bucket in a single transaction, matching the
// overwrite semantics of the JSON checkpoint: streams removed from the
// ledger (found active) must not linger in the checkpoint.
func (s *BboltStore) Save(snapshot map[model.StreamID]model.Status) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(s.bucket)) != nil {
			if err := tx.DeleteBucket([]byte(s.bucket)); err != nil {
				return fmt.Errorf("failed to reset bucket: %w", err)
			}
		}
		b, err := tx.CreateBucket([]byte(s.bucket))
		if err != nil {
			return fmt.Errorf("failed to recreate bucket: %w", err)
		}

		for id, status := range snapshot {
			if err := b.Put([]byte(id), []byte(status)); err != nil {
				return err
			}
		}
		return nil
	})
}
