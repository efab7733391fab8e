// Package logger provides the process-wide structured logger for cartsync.
// It wraps a global zap SugaredLogger so packages can log without carrying a
// logger through every constructor.
package logger

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// UnstructuredLogsEnv selects console output instead of JSON when set to true.
const UnstructuredLogsEnv = "CARTSYNC_UNSTRUCTURED_LOGS"

// Debug logs a message at debug level
func Debug(msg string) {
	zap.S().Debug(msg)
}

// Debugf logs a formatted message at debug level
func Debugf(msg string, args ...any) {
	zap.S().Debugf(msg, args...)
}

// Debugw logs a message at debug level with key/value pairs
func Debugw(msg string, keysAndValues ...any) {
	zap.S().Debugw(msg, keysAndValues...)
}

// Info logs a message at info level
func Info(msg string) {
	zap.S().Info(msg)
}

// Infof logs a formatted message at info level
func Infof(msg string, args ...any) {
	zap.S().Infof(msg, args...)
}

// Infow logs a message at info level with key/value pairs
func Infow(msg string, keysAndValues ...any) {
	zap.S().Infow(msg, keysAndValues...)
}

// Warn logs a message at warning level
func Warn(msg string) {
	zap.S().Warn(msg)
}

// Warnf logs a formatted message at warning level
func Warnf(msg string, args ...any) {
	zap.S().Warnf(msg, args...)
}

// Error logs a message at error level
func Error(msg string) {
	zap.S().Error(msg)
}

// Errorf logs a formatted message at error level
func Errorf(msg string, args ...any) {
	zap.S().Errorf(msg, args...)
}

// Fatalf logs a formatted message and exits the process
func Fatalf(msg string, args ...any) {
	zap.S().Fatalf(msg, args...)
}

// Initialize builds the global logger. Console output is used unless
// CARTSYNC_UNSTRUCTURED_LOGS is explicitly false; the debug viper key
// lowers the level to debug.
func Initialize() {
	var config zap.Config
	if unstructuredLogs() {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.Kitchen)
		config.OutputPaths = []string{"stderr"}
		config.DisableStacktrace = true
		config.DisableCaller = true
		config.Level.SetLevel(zap.InfoLevel)
	} else {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stderr"}
	}

	if viper.GetBool("debug") {
		config.Level.SetLevel(zap.DebugLevel)
	}

	zap.ReplaceGlobals(zap.Must(config.Build()))
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = zap.L().Sync()
}

func unstructuredLogs() bool {
	v, err := strconv.ParseBool(os.Getenv(UnstructuredLogsEnv))
	if err != nil {
		return true
	}
	return v
}
