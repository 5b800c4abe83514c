package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID carries the per-call request identifier.
const HeaderRequestID = "X-Request-ID"

// Request describes a single call issued through a Transport.
//
// A Request is owned by the in-flight call that created it. The body is kept
// as bytes so the same descriptor can be re-issued after a silent refresh.
type Request struct {
	// ID identifies the call in logs, traces, and the X-Request-ID header.
	// It is preserved when the request is re-issued.
	ID string

	Method string

	// Target is the path relative to the transport base URL, e.g. "/profile/me".
	Target string

	Header http.Header
	Body   []byte

	// Retried marks the single permitted re-attempt of an original call.
	// Only the refresh coordinator sets it.
	Retried bool
}

// NewRequest creates a request descriptor with a fresh ID and empty headers.
func NewRequest(method, target string, body []byte) *Request {
	return &Request{
		ID:     uuid.New().String(),
		Method: method,
		Target: target,
		Header: make(http.Header),
		Body:   body,
	}
}

// NewFormRequest creates a POST request with a URL-encoded form body.
func NewFormRequest(target string, form url.Values) *Request {
	req := NewRequest(http.MethodPost, target, []byte(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// NewJSONRequest creates a request with a JSON body. A nil body sends no payload.
func NewJSONRequest(method, target string, body any) (*Request, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req := NewRequest(method, target, data)
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Path returns the target path without query string.
func (r *Request) Path() string {
	if i := strings.IndexByte(r.Target, '?'); i >= 0 {
		return r.Target[:i]
	}
	return r.Target
}

// Authorization returns the current Authorization header value.
func (r *Request) Authorization() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Authorization")
}

// Bearer returns the token of a bearer Authorization header, or "" when the
// request carries none.
func (r *Request) Bearer() string {
	token, ok := strings.CutPrefix(r.Authorization(), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// SetBearer sets the Authorization header to the bearer form of token.
func (r *Request) SetBearer(token string) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set("Authorization", "Bearer "+token)
}

func (r *Request) bodyReader() io.Reader {
	if len(r.Body) == 0 {
		return nil
	}
	return bytes.NewReader(r.Body)
}
