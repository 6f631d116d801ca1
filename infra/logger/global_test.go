package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetGlobal() {
	globalMu.Lock()
	globalLogger = nil
	globalMu.Unlock()
}

func TestGetGlobalLogger_Default(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	logger := GetGlobalLogger()
	assert.NotNil(t, logger)
	assert.Equal(t, "paybridge", logger.service)
	assert.Equal(t, LevelInfo, logger.minLevel)
	assert.Same(t, logger, GetGlobalLogger())
}

func TestInitGlobalLogger(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	buf := &bytes.Buffer{}
	InitGlobalLogger(nil, SystemLoggerConfig{
		EnableConsole:    true,
		EnableOpenSearch: true,
		MinLevel:         LevelDebug,
		Environment:      "test",
		Output:           buf,
	})

	logger := GetGlobalLogger()
	assert.Equal(t, "paybridge", logger.service)
	assert.Equal(t, "test", logger.environment)
	assert.False(t, logger.enableOpenSearch)

	Debug("debug message")
	Info("info message", LogContext{Provider: "stripe"})
	Warn("warn message")
	Error("error message", nil)
	WithProvider("paypal").Info("scoped message")

	out := buf.String()
	assert.Contains(t, out, "debug message")
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "provider=paypal")
}
