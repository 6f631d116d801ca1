package logger

import (
	"sync"

	"github.com/mstgnz/paybridge/infra/opensearch"
)

var (
	globalMu     sync.RWMutex
	globalLogger *SystemLogger
)

// DefaultConfig is the console-only configuration used until
// InitGlobalLogger runs
func DefaultConfig() SystemLoggerConfig {
	return SystemLoggerConfig{
		EnableConsole: true,
		MinLevel:      LevelInfo,
		Service:       "paybridge",
		Version:       "1.0.0",
		Environment:   "development",
	}
}

// InitGlobalLogger replaces the global system logger. A nil OpenSearch
// logger keeps output on the console only.
func InitGlobalLogger(openSearchLogger *opensearch.Logger, config SystemLoggerConfig) {
	config.EnableOpenSearch = openSearchLogger != nil
	if config.Service == "" {
		config.Service = "paybridge"
	}

	l := NewSystemLogger(openSearchLogger, config)

	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewSystemLogger(nil, DefaultConfig())
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithProvider creates a context logger with provider
func WithProvider(provider string) *ContextLogger {
	return WithContext(LogContext{Provider: provider})
}
