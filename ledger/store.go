package ledger

import (
	"errors"
	"fmt"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

// Store persists ledger snapshots between runs. A checkpoint is written in
// full at most twice per run; there are no partial or append writes.
type Store interface {
	// Load reads the full checkpoint. It fails if the checkpoint does not
	// exist: a resume without a checkpoint is an operator error.
	Load() (map[model.StreamID]model.Status, error)
	// Save replaces the checkpoint with the given snapshot
	Save(snapshot map[model.StreamID]model.Status) error
	Close() error
}

var (
	ErrNoCheckpoint   error = errors.New("checkpoint not found")
	ErrBucketNotFound error = errors.New("bucket not found")
)

// CreateStore creates a checkpoint store based on configuration
func CreateStore(cfg *config.LedgerConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger configuration: %w", err)
	}

	switch cfg.LedgerType {
	case config.LedgerTypeJSON:
		return NewJSONStore(cfg.JSON)
	case config.LedgerTypeBbolt:
		return NewBboltStore(cfg.Bbolt)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.LedgerType)
	}
}
