package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, lvl.Level())

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zap.DebugLevel, lvl.Level())

	_, err = ParseLevel("not-a-level")
	assert.Error(t, err)
}

func TestCreateLoggerWithLumberjack_WritesToFile(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "oomguard.log")

	logger := CreateLoggerWithLumberjack(logFile, 1, zap.InfoLevel)
	require.NotNil(t, logger)

	logger.Infow("daemon started", "pid", 1234)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "daemon started")
	assert.Contains(t, string(content), `"pid":1234`)
}

func TestCreateLogger_EmptyPathUsesConsole(t *testing.T) {
	lvl, err := ParseLevel("error")
	require.NoError(t, err)

	logger := CreateLogger(lvl, "")
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Error("console error message")
	})
}

func TestCreateLogger_FilePathUsesLumberjack(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "oomguard.log")

	lvl, err := ParseLevel("debug")
	require.NoError(t, err)

	logger := CreateLogger(lvl, logFile)
	require.NotNil(t, logger)
	logger.Debug("debug test message")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug test message")
}
