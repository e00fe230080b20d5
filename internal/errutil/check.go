package errutil

import (
	"log/slog"
)

// LogMsg logs the error with a custom message if it is not nil. Used for
// cleanup-path errors (closing files, flushing the journal) that should be
// visible but never change control flow.
func LogMsg(err error, msg string, args ...any) {
	if err != nil {
		allArgs := append([]any{"error", err}, args...)
		slog.Warn(msg, allArgs...)
	}
}

// ReportError logs an unexpected error through the central reporting path.
func ReportError(err error, msg string, args ...any) {
	if err != nil {
		allArgs := append([]any{"error", err}, args...)
		slog.Error(msg, allArgs...)
	}
}
