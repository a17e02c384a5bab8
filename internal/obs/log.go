// Package obs provides lightweight, optional debug tracing for the AS2
// pipeline. It is deliberately not a full logging framework: components
// report warnings and errors through pkg/handlers.MessageHandler, and obs
// carries optional low-level trace lines that are useful when diagnosing
// a send but not part of the
// handler-observable error taxonomy. The pipeline packages under pkg/ do
// not emit through it; the as2send and as2serve commands switch it on with
// their -debug flag.
package obs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
)

// Logger is implemented by both the no-op and standard tracers.
//
// Example usage:
//
//	logger := obs.GetLogger()
//	logger.Debugf("resolved endpoint via profile %s", profile)
type Logger interface {
	// Debugf logs a formatted trace message.
	Debugf(format string, args ...any)
	// Debug logs trace arguments.
	Debug(args ...any)
}

// nopLogger does nothing (used when tracing is disabled).
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Debug(...any)          {}

// stdLogger logs to the standard logger with an [AS2] prefix.
type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...any) {
	log.Printf("[AS2] "+format, args...)
}

func (stdLogger) Debug(args ...any) {
	log.Printf("[AS2] %v", fmt.Sprint(args...))
}

var (
	// l is the private global tracer (use GetLogger() to access).
	l    Logger = nopLogger{}
	once sync.Once

	// Enabled mirrors the AS2_DEBUG environment variable. Init() sets this
	// once during startup; treat it as read-only afterward.
	Enabled bool
)

// Init reads AS2_DEBUG from the environment. Call it once at process
// startup before GetLogger() is used from multiple goroutines.
func Init() {
	Enabled = parseBool(os.Getenv("AS2_DEBUG"), false)
}

func parseBool(s string, defaultVal bool) bool {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// GetLogger returns the configured tracer. Always call this instead of
// caching a Logger, so tests can flip Enabled and re-init cleanly.
func GetLogger() Logger {
	return l
}

// InitLogger wires up the standard tracer if Enabled is set. Safe to call
// more than once; only the first call takes effect.
func InitLogger() {
	once.Do(func() {
		if Enabled {
			l = stdLogger{}
			l.Debug("AS2 debug tracing enabled")
		}
	})
}

// reset is a test-only hook to force re-initialization.
func reset() {
	l = nopLogger{}
	once = sync.Once{}
}
