package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridcast/gridcast/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel)

	logger.With("run_id", "r1").Info("Hourly series built", "buckets", 169, "error", errors.New("boom"), 42, "ignored")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "Hourly series built", lines[0]["message"])
	assert.Equal(t, "r1", lines[0]["run_id"])
	assert.Equal(t, float64(169), lines[0]["buckets"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.NotContains(t, lines[0], "42")
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown too")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "error", lines[1]["level"])
}

func TestLogger_WithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.InfoLevel)
	_ = parent.With("city", "bareilly")

	parent.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "city")
}

func TestContextLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithRunID(ctx, "run-1")

	assert.Equal(t, "run-1", RunID(ctx))
	assert.Same(t, logger, FromContext(ctx))

	InfoCtx(ctx, "info")
	WarnCtx(ctx, "warn")
	ErrorCtx(ctx, "error")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, "req-1", l["request_id"])
		assert.Equal(t, "run-1", l["run_id"])
	}
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	nop := Nop()
	SetGlobal(nop)
	assert.Same(t, nop, FromContext(context.Background()))
	assert.Equal(t, "", RunID(context.Background()))
}

func TestNewFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gridcast.log")

	logger, err := NewFromConfig(config.LoggingConfig{Level: "warn", Format: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "stage", "weather")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"stage":"weather"`)

	logger, err = NewFromConfig(config.LoggingConfig{Level: "bogus", Format: "console", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
