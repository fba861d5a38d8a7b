package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestNewJSON verifies JSON records carry the logger name and fields.
func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Format: "json", Level: "debug", Writer: &buf})
	require.NoError(t, err)

	l.Named("pass").Debug("function instrumented", zap.String("function", "main"))
	require.NoError(t, l.Sync())

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "pass", rec["name"])
	assert.Equal(t, "function instrumented", rec["msg"])
	assert.Equal(t, "main", rec["function"])
	assert.Equal(t, "debug", rec["level"])
}

// TestNewLogfmt verifies the logfmt encoder is wired.
func TestNewLogfmt(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Format: "logfmt", Writer: &buf})
	require.NoError(t, err)

	l.Info("graph written", zap.Int("nodes", 3))
	assert.Contains(t, buf.String(), `msg="graph written"`)
	assert.Contains(t, buf.String(), "nodes=3")
}

// TestLevelFilters checks records below the level are dropped.
func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Format: "console", Level: "warn", Writer: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

// TestParseErrors covers invalid formats and levels.
func TestParseErrors(t *testing.T) {
	_, err := New(Config{Format: "xml"})
	require.Error(t, err)

	_, err = New(Config{Level: "loud"})
	require.Error(t, err)

	e, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, CONSOLE, e)

	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)
}
