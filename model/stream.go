package model

import "time"

// StreamID identifies a saved stream in the remote project. IDs are opaque
// and stable across runs, which is what makes checkpoint resumption work.
type StreamID string

// RunWindow is the activity-lookback period for a single run. It is derived
// once at startup and held immutable for the whole run so every batch
// classifies against the same bounds.
type RunWindow struct {
	Oldest   time.Time
	Youngest time.Time
}

// NewRunWindow builds the window ending at now and reaching back the given
// number of days.
func NewRunWindow(now time.Time, days int) RunWindow {
	return RunWindow{
		Oldest:   now.AddDate(0, 0, -days),
		Youngest: now,
	}
}
