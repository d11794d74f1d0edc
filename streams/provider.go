package streams

import (
	"context"
	"fmt"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
)

// Provider is the remote streams API the engine runs against. The engine
// treats credentials and organization/project scoping as opaque
// configuration carried by the provider.
type Provider interface {
	// ListCandidates returns the full deletion-candidate set for the
	// configured project, already filtered by the service and exclusion
	// predicates.
	ListCandidates(ctx context.Context) ([]model.StreamID, error)
	// QueryActivity reports whether the stream had any activity inside
	// the window.
	QueryActivity(ctx context.Context, id model.StreamID, window model.RunWindow) (bool, error)
	// Delete removes the stream. The failure reason is opaque beyond the
	// error itself; deleting an already-deleted stream fails with a
	// different remote status than a missing one, and callers are not
	// expected to disambiguate.
	Delete(ctx context.Context, id model.StreamID) error
	// GetCurrentRPS returns the current requests per second rate for monitoring
	GetCurrentRPS() int64
}

// CreateProvider creates a streams API provider based on configuration
func CreateProvider(cfg *config.StreamsConfig) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid streams configuration: %w", err)
	}

	switch cfg.APIType {
	case config.APITypeHTTP:
		return NewHTTPProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported api type: %s", cfg.APIType)
	}
}
