package logger

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUnstructuredLogs(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{name: "unset defaults to console", value: "", expected: true},
		{name: "explicit true", value: "true", expected: true},
		{name: "explicit false", value: "false", expected: false},
		{name: "garbage defaults to console", value: "nope", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(UnstructuredLogsEnv, tt.value)
			assert.Equal(t, tt.expected, unstructuredLogs())
		})
	}
}

func TestInitialize_DebugLevel(t *testing.T) {
	t.Setenv(UnstructuredLogsEnv, "false")
	viper.Set("debug", true)
	t.Cleanup(func() { viper.Set("debug", false) })

	Initialize()

	assert.True(t, zap.L().Core().Enabled(zapcore.DebugLevel))
}

func TestHelpersWriteToGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	Debugf("fetching cart %s", "no-site")
	Infow("cart bound", "cart_key", "123")
	Warnf("poll failed: %v", "timeout")
	Errorf("push failed: %v", "boom")

	entries := logs.All()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, "fetching cart no-site", entries[0].Message)
		assert.Equal(t, "cart bound", entries[1].Message)
		assert.Equal(t, "123", entries[1].ContextMap()["cart_key"])
		assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	}
}
