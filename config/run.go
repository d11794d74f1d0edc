package config

import "fmt"

// RunConfig holds the knobs for a single deletion run. These were process
// globals in earlier versions of the script; keeping them here lets tests
// use small batches and temp checkpoint paths.
type RunConfig struct {
	Days        int  `json:"days,omitempty" yaml:"days,omitempty"`               // optional: activity lookback window in days
	BatchSize   int  `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`   // optional: number of streams per batch
	Concurrency int  `json:"concurrency,omitempty" yaml:"concurrency,omitempty"` // optional: number of batches in flight
	DryRun      bool `json:"dry_run" yaml:"dry_run"`                             // if true, the delete phase is skipped entirely
	Resume      bool `json:"resume,omitempty" yaml:"resume,omitempty"`           // resume from an existing checkpoint
}

// Validate validates run configuration
func (rc *RunConfig) Validate() error {
	if rc.Days <= 0 {
		return fmt.Errorf("days must be greater than 0")
	}
	if rc.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be greater than 0")
	}
	if rc.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (rc *RunConfig) ApplyDefaults() {
	if rc.Days <= 0 {
		rc.Days = 30
	}
	if rc.BatchSize <= 0 {
		rc.BatchSize = 10
	}
	if rc.Concurrency <= 0 {
		rc.Concurrency = 8
	}
}
