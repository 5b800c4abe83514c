// Package transport provides the HTTP transport used by the mediscan client.
//
// A Transport sends Request descriptors relative to a base URL and exposes
// request and response hooks that can be registered and ejected at runtime.
// The session package uses those hooks to stamp bearer tokens and to recover
// from expired tokens; the transport itself knows nothing about sessions.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yammahtea/mediscan/internal/logger"
	"github.com/yammahtea/mediscan/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single HTTP exchange when no client is supplied.
const DefaultTimeout = 30 * time.Second

// Transport issues requests against a single API base URL.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string

	nextHandle    atomic.Uint64
	requestHooks  hookList[RequestHook]
	responseHooks hookList[ResponseHook]
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = c
	}
}

// WithTimeout sets the per-exchange timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.httpClient.Timeout = d
		}
	}
}

// WithCookieJar sets the jar holding server-side credentials such as the
// refresh cookie. The transport never inspects the jar contents.
func WithCookieJar(jar http.CookieJar) Option {
	return func(t *Transport) {
		t.httpClient.Jar = jar
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		t.userAgent = ua
	}
}

// New creates a Transport for baseURL.
func New(baseURL string, opts ...Option) (*Transport, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	t := &Transport{
		baseURL: strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BaseURL returns the normalized base URL without a trailing slash.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// URL resolves a target path against the base URL.
func (t *Transport) URL(target string) string {
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return t.baseURL + target
}

// Do runs the request hooks, sends the request, and passes the outcome through
// the response hooks in registration order.
//
// Non-2xx responses are reported as *StatusError, failures before a response
// as *Error. Hooks may replace either outcome.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	for _, hook := range t.requestHooks.snapshot() {
		hook(req)
	}

	resp, err := t.send(ctx, req)

	for _, hook := range t.responseHooks.snapshot() {
		resp, err = hook(ctx, req, resp, err)
	}
	return resp, err
}

// send performs one HTTP exchange without running hooks.
func (t *Transport) send(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(telemetry.AttrHTTPMethod, req.Method),
			attribute.String(telemetry.AttrHTTPTarget, req.Path()),
			attribute.String(telemetry.AttrRequestID, req.ID),
			attribute.Bool(telemetry.AttrRetried, req.Retried),
		))
	defer span.End()

	ctx = logger.WithContext(ctx, &logger.LogContext{
		TraceID:   telemetry.TraceID(ctx),
		SpanID:    telemetry.SpanID(ctx),
		RequestID: req.ID,
		Method:    req.Method,
		Target:    req.Path(),
		StartTime: time.Now(),
	})

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.URL(req.Target), req.bodyReader())
	if err != nil {
		return nil, &Error{Op: req.Method, Target: req.Target, Err: err}
	}
	httpReq.Header = req.Header.Clone()
	if req.ID != "" {
		httpReq.Header.Set(HeaderRequestID, req.ID)
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		terr := &Error{Op: req.Method, Target: req.Target, Err: err}
		telemetry.RecordError(ctx, terr)
		logger.DebugCtx(ctx, "request failed", logger.KeyError, err, logger.KeyTimeout, terr.Timeout())
		return nil, terr
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		terr := &Error{Op: req.Method, Target: req.Target, Err: fmt.Errorf("failed to read response body: %w", err)}
		telemetry.RecordError(ctx, terr)
		return nil, terr
	}

	span.SetAttributes(attribute.Int(telemetry.AttrHTTPStatus, httpResp.StatusCode))
	logger.DebugCtx(ctx, "request completed",
		logger.KeyStatus, httpResp.StatusCode,
		logger.KeyRetried, req.Retried,
		logger.KeyDurationMs, logger.FromContext(ctx).DurationMs())

	if httpResp.StatusCode >= http.StatusBadRequest {
		serr := newStatusError(req, httpResp.StatusCode, body)
		telemetry.RecordError(ctx, serr)
		return nil, serr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Request:    req,
	}, nil
}
