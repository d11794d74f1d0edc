package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
)

func newBufferLogger(level config.LogLevel) (Logger, *strings.Builder) {
	var buf strings.Builder
	log := NewLoggerWithWriter(&config.LoggerConfig{
		Level:      level,
		TimeFormat: " ", // constant format keeps output assertions stable
	}, &buf)
	return log, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(config.LogLevelInfo)

	log.Error("an error")
	log.Info("some info")
	log.Debug("debug detail")
	log.Verbose("verbose detail")

	out := buf.String()
	require.Contains(t, out, "an error")
	require.Contains(t, out, "some info")
	require.NotContains(t, out, "debug detail")
	require.NotContains(t, out, "verbose detail")
}

func TestLogger_SilentLogsNothing(t *testing.T) {
	log, buf := newBufferLogger(config.LogLevelSilent)

	log.Error("an error")
	log.Info("some info")

	require.Empty(t, buf.String())
}

func TestLogger_Formatting(t *testing.T) {
	log, buf := newBufferLogger(config.LogLevelInfo)

	log.Info("deleted %d of %d streams", 3, 10)

	require.Contains(t, buf.String(), "deleted 3 of 10 streams")
	require.Contains(t, buf.String(), "[info]")
}

func TestLogger_WithFields(t *testing.T) {
	log, buf := newBufferLogger(config.LogLevelInfo)

	log.With("batch", 4).With("phase", "classify").Info("done")

	out := buf.String()
	require.Contains(t, out, "batch=4")
	require.Contains(t, out, "phase=classify")

	// The parent logger is unchanged
	buf.Reset()
	log.Info("plain")
	require.NotContains(t, buf.String(), "batch=4")
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	// Must not panic, and With must keep returning a usable logger
	log.With("k", "v").Info("ignored %d", 1)
	log.Error("ignored")
}
