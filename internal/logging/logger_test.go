package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestNewDefaultWriter(t *testing.T) {
	log := New(nil, "info")
	require.NotNil(t, log)
}

func TestSubChain(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	sub := log.Sub("store").Sub("restore")

	sub.Info().Msg("deep message")
	output := buf.String()
	assert.Contains(t, output, "deep message")
	assert.Contains(t, output, "restore")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").With("workspace", "42")

	log.Info().Msg("tagged")
	assert.Contains(t, buf.String(), `"workspace":"42"`)
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
}

func TestLogErr(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	assert.True(t, log.LogErr(nil, "unused", map[string]any{"kind": "Editor"}))
	assert.Empty(t, buf.String())

	assert.False(t, log.LogErr(errors.New("no deserializer"), "item dropped", map[string]any{"kind": "Terminal"}))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "item dropped")
	assert.Contains(t, buf.String(), "no deserializer")
	assert.Contains(t, buf.String(), `"kind":"Terminal"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("silent"))
	assert.True(t, ValidLevel("trace"))
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}

func TestNewWithOptions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "layoutdb.log")
	log, closer, err := NewWithOptions(Options{Level: "info", Style: "json", File: path})
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Info().Msg("should not appear")
	log.Error().Msg("should not appear")
	assert.False(t, log.LogErr(errors.New("boom"), "should not appear", nil))

	assert.Empty(t, buf.String())
}
