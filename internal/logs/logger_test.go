package logs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devauth-go/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("bogus"))
}

func TestSetupLogger_ConsoleOnly(t *testing.T) {
	logger, err := SetupLogger(&config.LogConfig{Level: "debug", EnableConsole: true})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Sugar().Debugw("console logger works", "k", "v")
}

func TestSetupLogger_NilConfigDefaults(t *testing.T) {
	logger, err := SetupLogger(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestSetupLogger_NoOutputs(t *testing.T) {
	_, err := SetupLogger(&config.LogConfig{Level: "info"})
	assert.Error(t, err)
}

func TestSetupLogger_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logger, err := SetupLogger(&config.LogConfig{
		Level:      "info",
		EnableFile: true,
		LogDir:     dir,
		Filename:   "test.log",
		MaxSize:    1,
	})
	require.NoError(t, err)

	logger.Sugar().Infow("file logger works", "k", "v")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "file logger works")
}
