package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, toZapLevel("debug"))
	require.Equal(t, zapcore.WarnLevel, toZapLevel("warn"))
	require.Equal(t, zapcore.InfoLevel, toZapLevel("verbose"))
}

func TestFileSink(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "logs", "linereader.log")
	l := New(Options{Level: "warn", Filename: filename, MaxSize: 1})

	l.Infof("dropped %d", 1)
	l.Warnf("line dropped: %s", "buffer full")
	require.NoError(t, l.sugared.Sync())

	b, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), "line dropped: buffer full"))
	require.False(t, strings.Contains(string(b), "dropped 1"))
}
