package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(level)
	previous := Logger
	Logger = zap.New(core)
	t.Cleanup(func() { Logger = previous })

	return logs
}

func TestNew(t *testing.T) {
	prod, err := New("production")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	dev, err := New("development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestHelpers(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	Debug("dropped")
	Info("registered", zap.String("event", "patient_registered"))
	Warn("rejected")
	Error("failed")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "registered", entries[0].Message)
	assert.Equal(t, "patient_registered", entries[0].ContextMap()["event"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestWithRequestID(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	WithRequestID("req-1").Info("request completed")

	entries := logs.FilterField(zap.String("request_id", "req-1")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request completed", entries[0].Message)
}
