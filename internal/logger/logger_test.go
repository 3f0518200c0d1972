package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNew_LevelAndFormat(t *testing.T) {
	t.Parallel()

	l := New(Config{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, l.Logrus().GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Logrus().Formatter)

	l = New(Config{Level: "bogus"})
	assert.Equal(t, logrus.InfoLevel, l.Logrus().GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Logrus().Formatter)
}

func TestNew_FileOutputRotates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "engine.log")
	l := New(Config{Output: path, MaxSize: 1})

	lj, ok := l.Logrus().Out.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, lj.Filename)
	assert.Equal(t, 1, lj.MaxSize)
}

func TestWithComponent_Fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(Config{Format: "json"})
	l.Logrus().SetOutput(&buf)

	l.WithComponent("engine").WithField("order_id", "abc").Info("filled")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "engine", rec["component"])
	assert.Equal(t, "abc", rec["order_id"])
	assert.Equal(t, "filled", rec["msg"])
}
