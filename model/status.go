package model

import "fmt"

// Status is the lifecycle state of a stream in the deletion ledger. The
// string values are exactly the literals written to the checkpoint file,
// so operators can hand-edit entries between runs.
type Status string

const (
	// StatusUnknown means activity has not been determined yet, or the
	// last classification attempt failed and should be retried on resume.
	StatusUnknown Status = "unknown"
	// StatusInactive means the stream had no activity inside the run
	// window and is a deletion candidate.
	StatusInactive Status = "inactive"
	// StatusDeleted means the delete call succeeded. Terminal.
	StatusDeleted Status = "deleted"
)

// ParseStatus converts a checkpoint literal into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnknown, StatusInactive, StatusDeleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid status literal: %q (must be one of: unknown, inactive, deleted)", s)
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusInactive, StatusDeleted:
		return true
	}
	return false
}
