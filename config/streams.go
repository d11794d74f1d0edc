// The API configuration is designed to allow adding other transports in the
// future. To do this, add a new APIType, update StreamsConfig, and define the
// validation for the new transport.
package config

import "fmt"

// APIType represents the type of transport used to reach the streams API
type APIType string

const (
	APITypeHTTP APIType = "http"
)

// StreamsConfig holds the configuration for the remote streams API
type StreamsConfig struct {
	APIType APIType `json:"type" yaml:"type"`

	// Common options for all transports
	Common CommonAPIConfig `json:"common,omitempty" yaml:"common,omitempty"`

	// Type-specific configurations
	HTTP *HTTPAPIConfig `json:"http,omitempty" yaml:"http,omitempty"`

	// Scoping and filtering, passed through to the API verbatim
	Organization      string   `json:"organization" yaml:"organization"`
	Project           string   `json:"project" yaml:"project"`
	Service           string   `json:"service,omitempty" yaml:"service,omitempty"`       // optional: only consider streams for this service
	EnvSuffix         string   `json:"env_suffix,omitempty" yaml:"env_suffix,omitempty"` // optional: environment suffix appended to the project scope
	ExcludeSubstrings []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`       // optional: name/query substrings excluded from listing
}

// CommonAPIConfig contains general settings applicable to all transports
type CommonAPIConfig struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"` // optional: request timeout in seconds
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`         // optional: maximum number of retries for API calls
	MaxRPS         int `json:"max_rps,omitempty" yaml:"max_rps,omitempty"`                 // optional: maximum requests per second to the API
}

// HTTPAPIConfig holds HTTP-specific configuration
type HTTPAPIConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url"`           // API base URL
	Token   string `json:"token,omitempty" yaml:"token,omitempty"` // API key, sent as a bearer token
}

// Validate ensures the configuration is valid for the specified transport type
func (sc *StreamsConfig) Validate() error {
	if err := sc.Common.Validate(); err != nil {
		return err
	}
	if sc.Organization == "" {
		return fmt.Errorf("organization is required")
	}
	if sc.Project == "" {
		return fmt.Errorf("project is required")
	}

	switch sc.APIType {
	case APITypeHTTP:
		if sc.HTTP == nil {
			return fmt.Errorf("http configuration is required when type is 'http'")
		}
		return sc.HTTP.Validate()
	default:
		return fmt.Errorf("unsupported api type: %s", sc.APIType)
	}
}

// Validate validates HTTP transport configuration
func (hc *HTTPAPIConfig) Validate() error {
	if hc.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if hc.Token == "" {
		return fmt.Errorf("api token is required")
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (c *CommonAPIConfig) ApplyDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	// MaxRPS leave 0 (means no limit)
}

func (c *CommonAPIConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("max_rps cannot be negative")
	}
	return nil
}

// ApplyDefaults sets default values for HTTP transport configuration
func (hc *HTTPAPIConfig) ApplyDefaults() {
	if hc.BaseURL == "" {
		hc.BaseURL = "https://api.lightstep.com/public/v0.2"
	}
}
