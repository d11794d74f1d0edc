package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	cfg := &AppConfig{
		Streams: StreamsConfig{
			APIType:      APITypeHTTP,
			Organization: "my-org",
			Project:      "my-project",
			HTTP: &HTTPAPIConfig{
				BaseURL: "https://api.example.com",
				Token:   "secret",
			},
		},
		Ledger: LedgerConfig{
			LedgerType: LedgerTypeJSON,
			JSON:       &JSONLedgerConfig{Path: "streams-status.json"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestAppConfig_ValidHappyPath(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestAppConfig_MissingTokenFailsFast(t *testing.T) {
	cfg := validConfig()
	cfg.Streams.HTTP.Token = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "token")
}

func TestAppConfig_MissingOrganization(t *testing.T) {
	cfg := validConfig()
	cfg.Streams.Organization = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "organization")
}

func TestAppConfig_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "chatty"

	require.Error(t, cfg.Validate())
}

func TestRunConfig_Defaults(t *testing.T) {
	rc := &RunConfig{}
	rc.ApplyDefaults()

	require.Equal(t, 30, rc.Days)
	require.Equal(t, 10, rc.BatchSize)
	require.Equal(t, 8, rc.Concurrency)
}

func TestLoadFromEnv_DryRunDefaultsTrue(t *testing.T) {
	os.Unsetenv("DRY_RUN")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.True(t, cfg.Run.DryRun, "dry-run must default to on")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
streams:
  organization: my-org
  project: my-project
  service: checkout
  http:
    base_url: https://api.example.com
    token: secret
run:
  days: 60
  dry_run: false
ledger:
  type: json
  json:
    path: /tmp/status.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "my-org", cfg.Streams.Organization)
	require.Equal(t, "checkout", cfg.Streams.Service)
	require.Equal(t, 60, cfg.Run.Days)
	require.False(t, cfg.Run.DryRun)
	require.Equal(t, "/tmp/status.json", cfg.Ledger.JSON.Path)

	// Unset values fall back to defaults
	require.Equal(t, 10, cfg.Run.BatchSize)
	require.Equal(t, 8, cfg.Run.Concurrency)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile("/does/not/exist.yaml")
	require.Error(t, err)
}
