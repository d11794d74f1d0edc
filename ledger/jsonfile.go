package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

var _ Store = (*JSONStore)(nil)

// JSONStore keeps the checkpoint as a single JSON object mapping stream ID
// to status literal. The format is deliberately flat so an operator can
// hand-edit entries between runs (e.g. force a stream back to "unknown");
// edits are accepted verbatim on the next resume.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSONStore based on configuration
func NewJSONStore(cfg *config.JSONLedgerConfig) (*JSONStore, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checkpoint config: %w", err)
	}

	return &JSONStore{path: cfg.Path}, nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) Load() (map[model.StreamID]model.Status, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCheckpoint, s.path)
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", s.path, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", s.path, err)
	}

	snapshot := make(map[model.StreamID]model.Status, len(raw))
	for id, literal := range raw {
		status, err := model.ParseStatus(literal)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %s, stream %s: %w", s.path, id, err)
		}
		snapshot[model.StreamID(id)] = status
	}

	return snapshot, nil
}

// Save writes the full snapshot to a temp file in the same directory and
// renames it into place, so a crash mid-write never leaves a truncated
// checkpoint behind.
func (s *JSONStore) Save(snapshot map[model.StreamID]model.Status) error {
	raw := make(map[string]string, len(snapshot))
	for id, status := range snapshot {
		raw[string(id)] = string(status)
	}

	blob, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	blob = append(blob, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace checkpoint %s: %w", s.path, err)
	}

	return nil
}
