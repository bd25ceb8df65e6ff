package rtsync

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// pkgLogger is the optional package-level structured logger. Logging is an
// infrastructure cross-cutting concern shared by every primitive instance,
// which keeps the per-handle configuration surface small.
var pkgLogger atomic.Pointer[logiface.Logger[logiface.Event]]

// SetLogger installs a structured logger for the package, or removes it when
// passed nil. Primitives log at debug level (watchdog arm/fire/cancel,
// mailbox and message queue teardown); with no logger installed these are
// no-ops.
//
// Backend-specific loggers can be adapted via their Logger method, e.g.
// [github.com/joeycumines/stumpy] per this package's tests.
func SetLogger(logger *logiface.Logger[logiface.Event]) {
	pkgLogger.Store(logger)
}

// logDebug returns a debug-level builder on the package logger. Both the nil
// logger and the nil builder are safe to chain on.
func logDebug() *logiface.Builder[logiface.Event] {
	return pkgLogger.Load().Debug()
}
