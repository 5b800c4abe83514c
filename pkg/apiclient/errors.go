package apiclient

import (
	"errors"

	"github.com/yammahtea/mediscan/pkg/transport"
)

// APIError represents an error response from the API.
type APIError = transport.StatusError

// AsAPIError returns the APIError wrapped by err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRateLimited reports whether err is a 429 Too Many Requests response.
// The server limits how many scans a user may run per day.
func IsRateLimited(err error) bool {
	return transport.StatusCode(err) == 429
}
