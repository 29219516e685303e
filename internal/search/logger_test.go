package search

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"info":    INFO,
		"":        INFO,
		"WARN":    WARNING,
		"warning": WARNING,
		"error":   ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestSetLogOutput_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf, LogOptions{Level: WARNING})

	LogInfo("quiet %d", 1)
	LogWarning("loud %d", 2)
	require.NoError(t, CloseLogger())

	assert.NotContains(t, buf.String(), "quiet 1")
	assert.Contains(t, buf.String(), "loud 2")
}

func TestLogging_DisabledByDefault(t *testing.T) {
	require.NoError(t, CloseLogger())
	assert.NotPanics(t, func() {
		LogError("nobody is listening")
	})
}

func TestInitLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(LogOptions{Dir: dir, Level: DEBUG, JSON: true}))

	LogDebug("scanning %s", "a.txt")
	require.NoError(t, CloseLogger())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"scanning a.txt"`)
	assert.Contains(t, string(data), `"level":"DEBUG"`)
}

func TestRotateLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, logFileName)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(maxLogSize+1))
	require.NoError(t, f.Close())

	rotateLogFile(path)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
}
