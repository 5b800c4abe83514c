package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. HTTP keys follow the OpenTelemetry semantic conventions.
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPTarget = "url.path"
	AttrHTTPStatus = "http.response.status_code"
	AttrServerURL  = "server.address"

	AttrRequestID = "mediscan.request_id"
	AttrRetried   = "mediscan.retried"

	AttrRefreshOutcome = "session.refresh.outcome"
	AttrRefreshWaiters = "session.refresh.waiters"
	AttrAuthenticated  = "session.authenticated"
	AttrUsername       = "user.name"
)

// Span names. Format: <component>.<operation>
const (
	SpanHTTPRequest = "http.client.request"

	SpanSessionRefresh   = "session.refresh"
	SpanSessionBootstrap = "session.bootstrap"
	SpanSessionLogin     = "session.login"
	SpanSessionLogout    = "session.logout"
)

// StartSessionSpan starts a span for a session operation.
func StartSessionSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RefreshOutcome returns an attribute for the outcome of a refresh attempt.
func RefreshOutcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrRefreshOutcome, outcome)
}

// Authenticated returns an attribute describing whether a token is held.
func Authenticated(ok bool) attribute.KeyValue {
	return attribute.Bool(AttrAuthenticated, ok)
}

// Username returns an attribute for the login name.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}
