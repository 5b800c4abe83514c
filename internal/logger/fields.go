package logger

import "log/slog"

// Standard field keys. Use these consistently so log lines can be queried
// across commands.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// HTTP exchange
	KeyRequestID  = "request_id"
	KeyMethod     = "method"
	KeyTarget     = "target"
	KeyStatus     = "status"
	KeyRetried    = "retried"
	KeyTimeout    = "timeout"
	KeyDurationMs = "duration_ms"

	// Session
	KeyServer        = "server"
	KeyUsername      = "username"
	KeyContext       = "context"
	KeyAuthenticated = "authenticated"
	KeyBootstrapping = "bootstrapping"
	KeyWaiters       = "waiters"
	KeyOutcome       = "outcome"

	KeyError = "error"
)

// RequestID returns a slog attribute for the request ID.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Target returns a slog attribute for the request target.
func Target(path string) slog.Attr {
	return slog.String(KeyTarget, path)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Err returns a slog attribute for an error. A nil error yields an empty value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
