package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/irgraph/internal/pass"
)

// TestDefaults verifies the defaults match the runtime.
func TestDefaults(t *testing.T) {
	c, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultGraphPath, c.GraphPath)
	assert.Equal(t, DefaultLogPath, c.LogPath)
	assert.Equal(t, pass.DefaultLoggerSymbol, c.LoggerSymbol)
	assert.Equal(t, pass.DefaultInitSymbol, c.InitSymbol)
	assert.Equal(t, pass.EntryInitPerFunction, c.EntryInit)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "console", c.LogFormat)
}

// TestFileAndEnv checks a YAML file overrides defaults and the environment
// overrides the file.
func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"graph_path: out/g.dot\nentry_init: first-function\nlog_path: out/file.log\n"), 0o644))
	t.Setenv("IRGRAPH_LOG_PATH", "out/env.log")

	c, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "out/g.dot", c.GraphPath)
	assert.Equal(t, pass.EntryInitFirstFunction, c.EntryInit)
	assert.Equal(t, "out/env.log", c.LogPath)
}

// TestValidate covers the rejected settings.
func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown entry init", KeyEntryInit, "every-block"},
		{"empty logger", KeyLoggerSymbol, ""},
		{"same symbols", KeyInitSymbol, pass.DefaultLoggerSymbol},
		{"empty graph path", KeyGraphPath, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.val)
			_, err := Load(v, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

// TestMissingFile checks a named config file must exist.
func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestPassOptions verifies the mapping onto pass options.
func TestPassOptions(t *testing.T) {
	c, err := Load(New(), "")
	require.NoError(t, err)
	opts := c.PassOptions()
	assert.Equal(t, pass.DefaultLoggerSymbol, opts.LoggerSymbol)
	assert.Equal(t, pass.DefaultInitSymbol, opts.InitSymbol)
	assert.Equal(t, pass.EntryInitPerFunction, opts.EntryInit)
}
