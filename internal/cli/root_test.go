package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/foldr/internal/config"
)

// isolateConfig points the default config location at an empty directory
// and restores the default logger replaced by the root command.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "foldr", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite log")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"compile", "validate", "run", "test", "replay"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tests := map[string][]string{
		"run":     {"input", "db", "session", "metrics-file"},
		"test":    {"parallel", "db", "session", "metrics-file"},
		"compile": {"output"},
		"replay":  {"db", "session"},
	}
	for name, flags := range tests {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range flags {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
}

func TestRootInvalidFormat(t *testing.T) {
	isolateConfig(t)
	program := writeFile(t, t.TempDir(), "cart.yaml", cartProgram)

	_, err := execute(t, NewRootCommand(), "--format", "xml", "validate", program)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootLoadsConfigFile(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	program := writeFile(t, dir, "cart.yaml", cartProgram)
	input := writeFile(t, dir, "in.json", cartInput)
	cfg := writeFile(t, dir, "foldr.yaml", "log:\n  level: debug\n  format: json\n")

	out, err := execute(t, NewRootCommand(), "--config", cfg, "run", program, "--input", input)
	require.NoError(t, err)
	assert.Equal(t, "{\"total\":15}\n", out.stdout)
	// Debug step logs in JSON go to stderr.
	assert.Contains(t, out.stderr, `"level":"DEBUG"`)
}

func TestRootBadConfigFile(t *testing.T) {
	isolateConfig(t)
	program := writeFile(t, t.TempDir(), "cart.yaml", cartProgram)

	_, err := execute(t, NewRootCommand(), "--config", filepath.Join(t.TempDir(), "missing.yaml"), "validate", program)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	buf := &bytes.Buffer{}

	logger := NewLogger(config.LogConfig{Level: "warn", Format: "text"}, false, buf)
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))

	verbose := NewLogger(config.LogConfig{Level: "error", Format: "text"}, true, buf)
	assert.True(t, verbose.Enabled(ctx, slog.LevelDebug))

	jsonLogger := NewLogger(config.LogConfig{Level: "info", Format: "json"}, false, buf)
	jsonLogger.Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
