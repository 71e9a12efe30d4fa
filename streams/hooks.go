package streams

import (
	"fmt"
	"sync/atomic"

	serr "github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
)

// diag is the diagnostics collaborator for signals that cannot reach a
// consumer. It defaults to the registered "streams" logger and is
// replaceable so tests can capture output.
var diag atomic.Pointer[logger.Logger]

// SetDiagnostics installs the logger receiving dropped-signal warnings.
func SetDiagnostics(l *logger.Logger) {
	diag.Store(l)
}

func diagnostics() *logger.Logger {
	if l := diag.Load(); l != nil {
		return l
	}
	return logger.Get("streams")
}

// DropObserver is notified whenever a signal is routed to diagnostics
// instead of a consumer. signal is "onNext", "onError" or "cleanup".
type DropObserver func(signal string)

var dropObserver atomic.Pointer[DropObserver]

// SetDropObserver installs a process-wide observer for dropped signals,
// alongside the diagnostics log line. A nil observer clears it.
func SetDropObserver(fn DropObserver) {
	if fn == nil {
		dropObserver.Store(nil)
		return
	}
	dropObserver.Store(&fn)
}

func notifyDropped(signal string) {
	if fn := dropObserver.Load(); fn != nil {
		(*fn)(signal)
	}
}

// onNextDropped records a value that arrived after termination or
// cancellation, or a surplus resource from a supplier.
func onNextDropped[T any](v T) {
	diagnostics().Warn("value dropped",
		logger.Fields(logger.FieldSignal, "onNext", logger.FieldValue, fmt.Sprintf("%v", v)))
	notifyDropped("onNext")
}

// onErrorDropped records an error that had no consumer left to receive it.
func onErrorDropped(err error) {
	diagnostics().Warn("error dropped",
		logger.Fields(logger.FieldSignal, "onError", logger.FieldError, err.Error()))
	notifyDropped("onError")
}

// onCleanupFailure records a cleanup failure on a path where the
// consumer is no longer listening.
func onCleanupFailure(stage string, err error) {
	diagnostics().Warn("resource cleanup failed",
		logger.Fields(logger.FieldStage, stage, logger.FieldError, err.Error()))
	notifyDropped("cleanup")
}

// onOperatorError normalizes a user-supplied-function failure into a
// stream error, preserving an existing StreamError untouched.
func onOperatorError(err error) error {
	if _, ok := err.(*serr.StreamError); ok {
		return err
	}
	return serr.Operator(err)
}
