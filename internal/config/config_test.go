package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestRootCmd creates a cobra.Command with the same persistent flags as the
// real root command so that Load can bind them during tests.
func newTestRootCmd() *cobra.Command {
	cmd := &cobra.Command{}
	pf := cmd.PersistentFlags()
	pf.String("config", "", "")
	pf.StringSlice("watch-dirs", []string{"src", "demo"}, "")
	pf.StringSlice("extensions", []string{".py"}, "")
	pf.Duration("debounce", 500*time.Millisecond, "")
	pf.Duration("settle-delay", 500*time.Millisecond, "")
	pf.Duration("stop-timeout", 5*time.Second, "")
	pf.Bool("restart-on-crash", false, "")
	pf.String("log-level", "info", "")
	pf.String("log-format", "text", "")
	pf.Bool("no-color", false, "")
	pf.BoolP("quiet", "q", false, "")

	return cmd
}

// writeTempConfig writes a YAML string to a temporary file and returns the path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

// ---------------------------------------------------------------------------
// Default
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"src", "demo"}, cfg.WatchDirs)
	assert.Equal(t, []string{".py"}, cfg.Extensions)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.StopTimeout)
	assert.False(t, cfg.RestartOnCrash)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.False(t, cfg.NoColor)
	assert.False(t, cfg.Quiet)
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ValidValues(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		cfg := Default()
		cfg.LogLevel = lvl
		assert.NoError(t, cfg.Validate(), "level=%s", lvl)
	}

	for _, format := range []string{"text", "json"} {
		cfg := Default()
		cfg.LogFormat = format
		assert.NoError(t, cfg.Validate(), "format=%s", format)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.ErrorContains(t, cfg.Validate(), "invalid log level")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid log format")
}

func TestValidate_EmptyWatchDirs(t *testing.T) {
	cfg := Default()
	cfg.WatchDirs = nil
	assert.ErrorContains(t, cfg.Validate(), "watch-dirs")
}

func TestValidate_EmptyExtensions(t *testing.T) {
	cfg := Default()
	cfg.Extensions = nil
	assert.ErrorContains(t, cfg.Validate(), "extensions")
}

func TestValidate_ExtensionWithoutDot(t *testing.T) {
	cfg := Default()
	cfg.Extensions = []string{"py"}
	assert.ErrorContains(t, cfg.Validate(), "must start with a dot")
}

func TestValidate_NegativeDebounce(t *testing.T) {
	cfg := Default()
	cfg.Debounce = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "debounce")
}

func TestValidate_NegativeSettleDelay(t *testing.T) {
	cfg := Default()
	cfg.SettleDelay = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "settle-delay")
}

func TestValidate_ZeroStopTimeout(t *testing.T) {
	cfg := Default()
	cfg.StopTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "stop-timeout")
}

// ---------------------------------------------------------------------------
// EffectiveLogLevel
// ---------------------------------------------------------------------------

func TestEffectiveLogLevel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, LogLevelInfo, cfg.EffectiveLogLevel())

	cfg.Quiet = true
	assert.Equal(t, LogLevelError, cfg.EffectiveLogLevel())
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newTestRootCmd(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"src", "demo"}, cfg.WatchDirs)
	assert.Equal(t, []string{".py"}, cfg.Extensions)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_FromFile(t *testing.T) {
	p := writeTempConfig(t, `
watch-dirs:
  - app
  - lib
extensions:
  - ".go"
debounce: 250ms
settle-delay: 100ms
restart-on-crash: true
log-level: debug
`)

	cfg, err := Load(newTestRootCmd(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{"app", "lib"}, cfg.WatchDirs)
	assert.Equal(t, []string{".go"}, cfg.Extensions)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 100*time.Millisecond, cfg.SettleDelay)
	assert.True(t, cfg.RestartOnCrash)
	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, p, cfg.ConfigFile)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REWATCH_LOG_LEVEL", "warn")
	t.Setenv("REWATCH_RESTART_ON_CRASH", "true")

	cfg, err := Load(newTestRootCmd(), "")
	require.NoError(t, err)

	assert.Equal(t, LogLevelWarn, cfg.LogLevel)
	assert.True(t, cfg.RestartOnCrash)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: debug\n")

	cmd := newTestRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("log-level", "error"))

	cfg, err := Load(cmd, p)
	require.NoError(t, err)

	assert.Equal(t, LogLevelError, cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(newTestRootCmd(), "/nonexistent/rewatch.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidValueInFile(t *testing.T) {
	p := writeTempConfig(t, "log-level: loud\n")

	_, err := Load(newTestRootCmd(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoad_NilCommand(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.LogLevel)
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = LogLevelDebug

	ctx := NewContext(context.Background(), cfg)
	got := FromContext(ctx)

	assert.Same(t, cfg, got)
}

func TestFromContext_Fallback(t *testing.T) {
	got := FromContext(context.Background())
	assert.Equal(t, Default(), got)
}
