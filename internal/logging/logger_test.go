package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, level, "пустая строка означает INFO")

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestWriterLogger_Threshold(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("arena", &buf, WARN)

	l.Info("скрыто")
	l.Warn("видно %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [arena] видно 42")
	assert.True(t, l.Enabled(ERROR))
	assert.False(t, l.Enabled(DEBUG))
}

func TestLoggerWithFile(t *testing.T) {
	dir := t.TempDir()

	l, err := NewLoggerWithOptions("game", Options{Dir: dir, MinConsoleLevel: OFF, MinFileLevel: DEBUG})
	require.NoError(t, err)

	l.Debug("round %d started", 1)
	l.Trace("не пишется")
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "game_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [game] round 1 started")
	assert.NotContains(t, string(data), "не пишется")
}

func TestLoggerManager_ReusesLoggers(t *testing.T) {
	lm := GetLoggerManager()

	first := lm.MustGetLogger("test-component")
	second := lm.MustGetLogger("test-component")
	assert.Same(t, first, second)
	assert.Contains(t, lm.Components(), "test-component")

	require.NoError(t, lm.SetLevels("test-component", ERROR, OFF))
	assert.False(t, first.Enabled(WARN))
	assert.Error(t, lm.SetLevels("missing", INFO, INFO))
}
