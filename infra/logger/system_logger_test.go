package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferedLogger(minLevel LogLevel) (*SystemLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewSystemLogger(nil, SystemLoggerConfig{
		EnableConsole: true,
		MinLevel:      minLevel,
		Service:       "test-service",
		Version:       "1.0.0",
		Environment:   "test",
		Output:        buf,
	}), buf
}

func TestNewSystemLogger(t *testing.T) {
	config := SystemLoggerConfig{
		EnableConsole:    true,
		EnableOpenSearch: true,
		MinLevel:         LevelWarn,
		Service:          "test-service",
		Version:          "1.0.0",
		Environment:      "test",
	}

	logger := NewSystemLogger(nil, config)

	assert.NotNil(t, logger)
	assert.True(t, logger.enableConsole)
	assert.False(t, logger.enableOpenSearch, "no sink means no OpenSearch output")
	assert.Equal(t, LevelWarn, logger.minLevel)
	assert.Equal(t, "test-service", logger.service)
	assert.Equal(t, "1.0.0", logger.version)
	assert.Equal(t, "test", logger.environment)
	assert.NotNil(t, logger.out)
}

func TestNewSystemLogger_DefaultLevel(t *testing.T) {
	logger := NewSystemLogger(nil, SystemLoggerConfig{})
	assert.Equal(t, LevelInfo, logger.minLevel)
}

func TestSystemLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel LogLevel
		level    LogLevel
		expected bool
	}{
		{"debug_level_allows_all", LevelDebug, LevelDebug, true},
		{"info_level_blocks_debug", LevelInfo, LevelDebug, false},
		{"info_level_allows_info", LevelInfo, LevelInfo, true},
		{"warn_level_allows_error", LevelWarn, LevelError, true},
		{"error_level_blocks_warn", LevelError, LevelWarn, false},
		{"fatal_level_allows_fatal", LevelFatal, LevelFatal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := newBufferedLogger(tt.minLevel)
			assert.Equal(t, tt.expected, logger.shouldLog(tt.level))
		})
	}
}

func TestSystemLogger_ConsoleOutput(t *testing.T) {
	logger, buf := newBufferedLogger(LevelDebug)

	logger.Info("charge created", LogContext{
		Provider:  "stripe",
		RequestID: "0123456789abcdef",
		Fields:    map[string]any{"charge_id": "ch_1", "amount": 1000},
	})

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[provider=stripe req_id=01234567]")
	assert.Contains(t, out, "charge created")
	assert.Contains(t, out, "  amount: 1000\n  charge_id: ch_1\n")
}

func TestSystemLogger_ShortRequestID(t *testing.T) {
	logger, buf := newBufferedLogger(LevelDebug)

	assert.NotPanics(t, func() {
		logger.Info("short", LogContext{RequestID: "abc"})
	})
	assert.Contains(t, buf.String(), "req_id=abc")
}

func TestSystemLogger_ErrorAddsField(t *testing.T) {
	logger, buf := newBufferedLogger(LevelDebug)
	fields := map[string]any{"intent_id": "PAY-1"}

	logger.Error("execute failed", errors.New("payment already done"), LogContext{Fields: fields})

	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "execute failed - Error: payment already done")
	assert.Contains(t, out, "intent_id: PAY-1")
	assert.NotContains(t, out, "  error:")
	_, mutated := fields["error"]
	assert.False(t, mutated, "caller fields must not be modified")
}

func TestSystemLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(LevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "visible warn"))
}

func TestContextLogger(t *testing.T) {
	logger, buf := newBufferedLogger(LevelDebug)

	logger.WithContext(LogContext{}).
		SetProvider("paypal").
		SetRequestID("req-1").
		AddField("intent_id", "PAY-9").
		Warn("retrying")

	out := buf.String()
	assert.Contains(t, out, "provider=paypal")
	assert.Contains(t, out, "req_id=req-1")
	assert.Contains(t, out, "intent_id: PAY-9")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestExtractComponent(t *testing.T) {
	tests := []struct {
		file     string
		expected string
	}{
		{"/src/paybridge/provider/stripe/charge.go", "provider/stripe"},
		{"/src/paybridge/provider/service.go", "provider"},
		{"/home/dev/module/infra/lock/redis.go", "lock"},
		{"main.go", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractComponent(tt.file))
		})
	}
}
