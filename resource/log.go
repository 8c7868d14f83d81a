package resource

import (
	"log/slog"
	"sync/atomic"
)

var (
	customLogger atomic.Pointer[slog.Logger]
	cachedLogger atomic.Pointer[slog.Logger]
)

// SetLogger replaces the package-level logger. The cache logs sparingly
// (evictions, at debug level); the hot hit path never logs. Pass nil to
// reset to the default: slog.Default() with a "component" attribute,
// re-derived on the next use. Call SetLogger(nil) after slog.SetDefault()
// to pick up changes.
//
// Safe to call concurrently with cache operations; loggers are stored as
// atomic pointers. For a strict happens-before guarantee, call SetLogger
// before starting goroutines that use the library (e.g., in TestMain
// before m.Run).
func SetLogger(l *slog.Logger) {
	customLogger.Store(l)
	cachedLogger.Store(nil)
}

func logger() *slog.Logger {
	if l := customLogger.Load(); l != nil {
		return l
	}
	if l := cachedLogger.Load(); l != nil {
		return l
	}
	l := slog.Default().With("component", "shared-resource")
	cachedLogger.Store(l)
	return l
}
