package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

func newTestJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	s, err := NewJSONStore(&config.JSONLedgerConfig{
		Path: filepath.Join(t.TempDir(), "streams-status.json"),
	})
	require.NoError(t, err)
	return s
}

func TestJSONStore_RoundTrip(t *testing.T) {
	s := newTestJSONStore(t)

	snapshot := map[model.StreamID]model.Status{
		"a": model.StatusUnknown,
		"b": model.StatusInactive,
		"c": model.StatusDeleted,
	}

	require.NoError(t, s.Save(snapshot))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, snapshot, loaded)
}

func TestJSONStore_SaveReplacesPreviousCheckpoint(t *testing.T) {
	s := newTestJSONStore(t)

	require.NoError(t, s.Save(map[model.StreamID]model.Status{
		"a": model.StatusInactive,
		"b": model.StatusInactive,
	}))

	// Stream b was found active in a later pass and left the ledger; the
	// checkpoint must not keep it
	require.NoError(t, s.Save(map[model.StreamID]model.Status{
		"a": model.StatusDeleted,
	}))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, map[model.StreamID]model.Status{"a": model.StatusDeleted}, loaded)
}

func TestJSONStore_LoadMissingCheckpoint(t *testing.T) {
	s := newTestJSONStore(t)

	_, err := s.Load()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoCheckpoint))
}

func TestJSONStore_AcceptsHandEditedCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams-status.json")

	// An operator may edit the file between runs; edits are taken verbatim
	content := `{
  "stream-1": "unknown",
  "stream-2": "inactive",
  "stream-3": "deleted"
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewJSONStore(&config.JSONLedgerConfig{Path: path})
	require.NoError(t, err)

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, map[model.StreamID]model.Status{
		"stream-1": model.StatusUnknown,
		"stream-2": model.StatusInactive,
		"stream-3": model.StatusDeleted,
	}, loaded)
}

func TestJSONStore_RejectsInvalidStatusLiteral(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams-status.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stream-1": "pending"}`), 0o644))

	s, err := NewJSONStore(&config.JSONLedgerConfig{Path: path})
	require.NoError(t, err)

	_, err = s.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid status literal")
}

func TestJSONStore_DeterministicContent(t *testing.T) {
	s := newTestJSONStore(t)

	snapshot := map[model.StreamID]model.Status{
		"b": model.StatusInactive,
		"a": model.StatusUnknown,
		"c": model.StatusDeleted,
	}

	require.NoError(t, s.Save(snapshot))
	first, err := os.ReadFile(s.path)
	require.NoError(t, err)

	require.NoError(t, s.Save(snapshot))
	second, err := os.ReadFile(s.path)
	require.NoError(t, err)

	require.Equal(t, first, second, "saving the same ledger twice must produce identical content")
}
