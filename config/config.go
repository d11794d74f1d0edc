package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	Streams StreamsConfig `json:"streams" yaml:"streams"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`
	Run     RunConfig     `json:"run" yaml:"run"`
	Logger  LoggerConfig  `json:"logger" yaml:"logger"`
}

// Validate validates the entire configuration
func (ac *AppConfig) Validate() error {
	if err := ac.Streams.Validate(); err != nil {
		return fmt.Errorf("streams config error: %w", err)
	}
	if err := ac.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger config error: %w", err)
	}
	if err := ac.Run.Validate(); err != nil {
		return fmt.Errorf("run config error: %w", err)
	}
	if err := ac.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config error: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to all components
func (ac *AppConfig) ApplyDefaults() {
	ac.Streams.Common.ApplyDefaults()
	ac.Run.ApplyDefaults()
	ac.Logger.ApplyDefaults()

	if ac.Streams.HTTP != nil {
		ac.Streams.HTTP.ApplyDefaults()
	}
	if ac.Ledger.JSON != nil {
		ac.Ledger.JSON.ApplyDefaults()
	}
	if ac.Ledger.Bbolt != nil {
		ac.Ledger.Bbolt.ApplyDefaults()
	}
}

// LoadFromEnv loads configuration from environment variables
// This is a helper to populate config from env vars
func LoadFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	// Run configuration
	cfg.Run.Days = getEnvInt("LOOKBACK_DAYS", 30)
	cfg.Run.BatchSize = getEnvInt("BATCH_SIZE", 10)
	cfg.Run.Concurrency = getEnvInt("CONCURRENCY", 8)
	cfg.Run.DryRun = getEnvBool("DRY_RUN", true)
	cfg.Run.Resume = getEnvBool("RESUME", false)

	// Logger configuration
	cfg.Logger.Level = LogLevel(getEnv("LOG_LEVEL", string(LogLevelInfo)))

	// Ledger configuration
	cfg.Ledger.LedgerType = LedgerType(getEnv("LEDGER_TYPE", string(LedgerTypeJSON)))
	switch cfg.Ledger.LedgerType {
	case LedgerTypeBbolt:
		cfg.Ledger.Bbolt = &BboltLedgerConfig{
			Path:   getEnv("LEDGER_BBOLT_PATH", "streams-status.db"),
			Bucket: getEnv("LEDGER_BBOLT_BUCKET", "streams"),
			Mode:   0600,
			NoSync: getEnvBool("LEDGER_BBOLT_NO_SYNC", false),
		}
	default:
		cfg.Ledger.JSON = &JSONLedgerConfig{
			Path: getEnv("CHECKPOINT_PATH", "streams-status.json"),
		}
	}

	// Streams API configuration
	cfg.Streams.APIType = APIType(getEnv("API_TYPE", string(APITypeHTTP)))
	cfg.Streams.Common.TimeoutSeconds = getEnvInt("API_TIMEOUT_SECONDS", 30)
	cfg.Streams.Common.MaxRetries = getEnvInt("API_MAX_RETRIES", 3)
	cfg.Streams.Common.MaxRPS = getEnvInt("API_MAX_RPS", 0)

	cfg.Streams.HTTP = &HTTPAPIConfig{
		BaseURL: getEnv("API_BASE_URL", ""),
		Token:   getEnv("API_TOKEN", ""),
	}

	cfg.Streams.Organization = getEnv("ORGANIZATION", "")
	cfg.Streams.Project = getEnv("PROJECT", "")
	cfg.Streams.Service = getEnv("SERVICE_FILTER", "")
	cfg.Streams.EnvSuffix = getEnv("ENV_SUFFIX", "")
	if raw := getEnv("EXCLUDE_SUBSTRINGS", ""); raw != "" {
		cfg.Streams.ExcludeSubstrings = splitAndTrim(raw)
	}

	// Apply defaults
	cfg.ApplyDefaults()

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. Values present in the
// file replace the zero values; defaults are applied afterwards.
func LoadFromFile(path string) (*AppConfig, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(blob, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Backend sub-configs must exist before defaults are applied
	if cfg.Ledger.LedgerType == "" {
		cfg.Ledger.LedgerType = LedgerTypeJSON
	}
	if cfg.Ledger.LedgerType == LedgerTypeJSON && cfg.Ledger.JSON == nil {
		cfg.Ledger.JSON = &JSONLedgerConfig{}
	}
	if cfg.Ledger.LedgerType == LedgerTypeBbolt && cfg.Ledger.Bbolt == nil {
		cfg.Ledger.Bbolt = &BboltLedgerConfig{}
	}
	if cfg.Streams.APIType == "" {
		cfg.Streams.APIType = APITypeHTTP
	}
	if cfg.Streams.HTTP == nil {
		cfg.Streams.HTTP = &HTTPAPIConfig{}
	}

	cfg.ApplyDefaults()

	return cfg, nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
