package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			t.Setenv(EnvStateDir, "")
			t.Setenv("XDG_STATE_HOME", tempDir)

			SetupLoggerWithOutput(tt.verbosity, &bytes.Buffer{}, true)

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())

			logPath := filepath.Join(tempDir, "reshader", "reshader.log")
			_, err := os.Stat(logPath)
			assert.NoError(t, err, "log file should exist at %s", logPath)
		})
	}
}

func TestGetLogFilePath(t *testing.T) {
	tests := []struct {
		name         string
		stateDir     string
		xdgState     string
		wantContains string
	}{
		{
			name:         "with RESHADER_STATE_DIR",
			stateDir:     "/custom/reshader-state",
			wantContains: "/custom/reshader-state/reshader.log",
		},
		{
			name:         "with XDG_STATE_HOME",
			xdgState:     "/custom/state",
			wantContains: "/custom/state/reshader/reshader.log",
		},
		{
			name:         "without XDG_STATE_HOME",
			wantContains: ".local/state/reshader/reshader.log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvStateDir, tt.stateDir)
			t.Setenv("XDG_STATE_HOME", tt.xdgState)

			got := LogFilePath()
			assert.True(t, filepath.IsAbs(got), "LogFilePath() returned relative path: %s", got)
			assert.True(t, strings.Contains(filepath.ToSlash(got), tt.wantContains),
				"LogFilePath() = %s, want to contain %s", got, tt.wantContains)
		})
	}
}

func TestGetLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := GetLogger("install")
	logger.Info().Msg("test message")

	assert.Contains(t, buf.String(), `"component":"install"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := zerolog.New(&buf)

	done := LogOperationStart(logger, "merge")
	done()

	out := buf.String()
	require.Contains(t, out, "Operation started")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"operation":"merge"`)
	assert.Contains(t, out, "duration")
}
