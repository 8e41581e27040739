package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquid.log")
	l := New(&Config{Level: "warn", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	l.Info("dropped")
	l.Warn("kept", zap.String("template", "index"))
	require.NoError(t, l.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, sonic.Unmarshal(b, &rec), string(b))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "index", rec["template"])
}

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	L().Debug("captured", zap.Int("line", 3))
	restore()
	L().Debug("not captured")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "captured", entry.Message)
	assert.EqualValues(t, 3, entry.ContextMap()["line"])
}
