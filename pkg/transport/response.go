package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Request is the descriptor that produced this response. For a response
	// obtained after a silent refresh it is the re-issued descriptor.
	Request *Request
}

// DecodeJSON decodes the response body into v. An empty body leaves v untouched.
func (r *Response) DecodeJSON(v any) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
