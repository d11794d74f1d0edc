package config

import (
	"fmt"
	"os"
)

// LedgerType represents the checkpoint storage backend
type LedgerType string

const (
	LedgerTypeJSON  LedgerType = "json"  // Default: a single hand-editable JSON file
	LedgerTypeBbolt LedgerType = "bbolt" // bbolt database, for very large projects
)

// LedgerConfig holds the configuration for checkpoint persistence
type LedgerConfig struct {
	LedgerType LedgerType `json:"type" yaml:"type"`

	// Type-specific configs
	JSON  *JSONLedgerConfig  `json:"json,omitempty" yaml:"json,omitempty"`
	Bbolt *BboltLedgerConfig `json:"bbolt,omitempty" yaml:"bbolt,omitempty"`
}

// JSONLedgerConfig holds configuration for the JSON file checkpoint
type JSONLedgerConfig struct {
	Path string `json:"path" yaml:"path"` // Path to the checkpoint file
}

// BboltLedgerConfig holds bbolt-specific configuration
type BboltLedgerConfig struct {
	Path   string      `json:"path" yaml:"path"`                           // Path to bbolt DB file
	Bucket string      `json:"bucket" yaml:"bucket"`                       // Name of the bucket
	Mode   os.FileMode `json:"mode,omitempty" yaml:"mode,omitempty"`       // File open mode: "0600", "0644"
	NoSync bool        `json:"no_sync,omitempty" yaml:"no_sync,omitempty"` // Disable fsync for better performance
}

// Validate validates the ledger configuration
func (lc *LedgerConfig) Validate() error {
	switch lc.LedgerType {
	case LedgerTypeJSON:
		if lc.JSON == nil {
			return fmt.Errorf("json configuration is required when type is 'json'")
		}
		return lc.JSON.Validate()
	case LedgerTypeBbolt:
		if lc.Bbolt == nil {
			return fmt.Errorf("bbolt configuration is required when type is 'bbolt'")
		}
		return lc.Bbolt.Validate()
	default:
		return fmt.Errorf("unsupported ledger type: %s", lc.LedgerType)
	}
}

func (jc *JSONLedgerConfig) Validate() error {
	if jc.Path == "" {
		return fmt.Errorf("checkpoint path is required")
	}
	return nil
}

// ApplyDefaults sets default values if not provided for the JSON checkpoint
func (jc *JSONLedgerConfig) ApplyDefaults() {
	if jc.Path == "" {
		jc.Path = "streams-status.json"
	}
}

func (bc *BboltLedgerConfig) Validate() error {
	if bc.Path == "" {
		return fmt.Errorf("bbolt path is required")
	}
	if bc.Bucket == "" {
		return fmt.Errorf("bbolt bucket is required")
	}
	return nil
}

// ApplyDefaults sets default values if not provided for bbolt
func (bc *BboltLedgerConfig) ApplyDefaults() {
	if bc.Path == "" {
		bc.Path = "streams-status.db"
	}
	if bc.Bucket == "" {
		bc.Bucket = "streams"
	}
	if bc.Mode == 0 {
		bc.Mode = 0600
	}
	// NoSync remains false by default for data safety
}
