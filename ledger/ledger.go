package ledger

import (
	"sort"
	"sync"

	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

// Ledger is the in-memory stream status map for one run. Batch workers write
// disjoint keys concurrently, so every mutation takes the mutex.
//
// Once a stream is marked deleted its entry is frozen: later classify or act
// passes over the same ledger cannot change or remove it.
type Ledger struct {
	mu      sync.Mutex
	entries map[model.StreamID]model.Status
}

// New creates an empty ledger for a fresh run
func New() *Ledger {
	return &Ledger{entries: make(map[model.StreamID]model.Status)}
}

// FromSnapshot creates a ledger from a loaded checkpoint snapshot
func FromSnapshot(snapshot map[model.StreamID]model.Status) *Ledger {
	entries := make(map[model.StreamID]model.Status, len(snapshot))
	for id, status := range snapshot {
		entries[id] = status
	}
	return &Ledger{entries: entries}
}

// Get returns the status of a stream and whether it is present
func (l *Ledger) Get(id model.StreamID) (model.Status, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	status, ok := l.entries[id]
	return status, ok
}

// MarkInactive records a stream as a deletion candidate. No-op if the
// stream is already deleted.
func (l *Ledger) MarkInactive(id model.StreamID) {
	l.set(id, model.StatusInactive)
}

// MarkUnknown records that classification failed for a stream and should be
// retried on resume. No-op if the stream is already deleted.
func (l *Ledger) MarkUnknown(id model.StreamID) {
	l.set(id, model.StatusUnknown)
}

// MarkDeleted records a successful delete. Terminal.
func (l *Ledger) MarkDeleted(id model.StreamID) {
	l.set(id, model.StatusDeleted)
}

func (l *Ledger) set(id model.StreamID, status model.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[id] == model.StatusDeleted {
		return
	}
	l.entries[id] = status
}

// Remove drops a stream from the ledger entirely. Active streams are not
// deletion candidates, so they have no entry at all. No-op if the stream is
// already deleted.
func (l *Ledger) Remove(id model.StreamID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries[id] == model.StatusDeleted {
		return
	}
	delete(l.entries, id)
}

// IDsWithStatus returns the streams currently at the given status, sorted
// for deterministic batching.
func (l *Ledger) IDsWithStatus(status model.Status) []model.StreamID {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []model.StreamID
	for id, s := range l.entries {
		if s == status {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of entries in the ledger
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot returns a copy of the ledger contents for persistence
func (l *Ledger) Snapshot() map[model.StreamID]model.Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[model.StreamID]model.Status, len(l.entries))
	for id, status := range l.entries {
		snapshot[id] = status
	}
	return snapshot
}

// Partition splits the ledger contents into the three status groups for the
// final report. Each group is sorted.
func (l *Ledger) Partition() (unknown, inactive, deleted []model.StreamID) {
	return l.IDsWithStatus(model.StatusUnknown),
		l.IDsWithStatus(model.StatusInactive),
		l.IDsWithStatus(model.StatusDeleted)
}
