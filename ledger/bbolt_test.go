package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

func newTestBboltStore(t *testing.T) *BboltStore {
	t.Helper()
	s, err := NewBboltStore(&config.BboltLedgerConfig{
		Path: filepath.Join(t.TempDir(), "streams-status.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBboltStore_OpenInvalidPath(t *testing.T) {
	_, err := NewBboltStore(&config.BboltLedgerConfig{
		Path: "/invalid/path.db",
	})
	require.Error(t, err)
}

func TestBboltStore_RoundTrip(t *testing.T) {
	s := newTestBboltStore(t)

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

func TestBboltStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	s := newTestBboltStore(t)

	require.NoError(t, s.Save(map[model.StreamID]model.Status{
		"a": model.StatusInactive,
		"b": model.StatusInactive,
	}))
	require.NoError(t, s.Save(map[model.StreamID]model.Status{
		"a": model.StatusDeleted,
	}))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, map[model.StreamID]model.Status{"a": model.StatusDeleted}, loaded)
}

func TestBboltStore_LoadEmptyIsNoCheckpoint(t *testing.T) {
	s := newTestBboltStore(t)

	_, err := s.Load()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoCheckpoint))
}

func TestBboltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams-status.db")

	s, err := NewBboltStore(&config.BboltLedgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Save(map[model.StreamID]model.Status{"a": model.StatusInactive}))
	require.NoError(t, s.Close())

	s, err = NewBboltStore(&config.BboltLedgerConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, map[model.StreamID]model.Status{"a": model.StatusInactive}, loaded)
}
