package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// StatusError is returned for responses with a 4xx or 5xx status code.
type StatusError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`

	// Target and RequestID identify the call that failed.
	Target    string `json:"-"`
	RequestID string `json:"-"`
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
}

// IsAuthError returns true if this is an authentication error.
func (e *StatusError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if this is a not found error.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Error wraps a failure that happened before a response was received
// (dial errors, timeouts, cancelled contexts).
type Error struct {
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the underlying failure was a timeout.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(e.Err, &ne) {
		return ne.Timeout()
	}
	return false
}

// StatusCode extracts the HTTP status carried by err, or 0 when err did not
// come from a response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsTimeout reports whether err is a transport-level timeout.
func IsTimeout(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}

// errorBody accepts both {"code","message","details"} and FastAPI's {"detail"}.
type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details string          `json:"details"`
	Detail  json.RawMessage `json:"detail"`
}

// newStatusError builds a StatusError from a failed response body.
func newStatusError(req *Request, status int, body []byte) *StatusError {
	se := &StatusError{
		StatusCode: status,
		Target:     req.Target,
		RequestID:  req.ID,
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		se.Code = eb.Code
		se.Message = eb.Message
		se.Details = eb.Details
		if se.Message == "" && len(eb.Detail) > 0 {
			se.Message = detailMessage(eb.Detail)
		}
	}

	if se.Message == "" {
		se.Message = strings.TrimSpace(string(body))
	}
	return se
}

// detailMessage flattens FastAPI detail payloads, which are either a string or
// a list of validation errors with a "msg" field.
func detailMessage(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}
