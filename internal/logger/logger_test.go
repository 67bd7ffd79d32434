package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warning ", slog.LevelWarn, true},
		{"Error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("GOVIS_LOG_LEVEL", "debug")
	t.Setenv("GOVIS_LOG_FORMAT", "JSON")

	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, Config{Level: slog.LevelInfo, Format: "json"})

	log.Info("frame dropped", slog.String("mode", "3d"))
	log.Debug("hidden")

	assert.Contains(t, buf.String(), `"msg":"frame dropped"`)
	assert.Contains(t, buf.String(), `"mode":"3d"`)
	assert.NotContains(t, buf.String(), "hidden")
}
