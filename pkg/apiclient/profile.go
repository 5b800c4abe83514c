package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"
)

// Profile is the authenticated user's account and daily usage.
type Profile struct {
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	IsUnlimited  bool       `json:"is_unlimited"`
	RequestCount int        `json:"request_count"`
	MaxRequests  int        `json:"max_requests"`
	NextReset    Timestamp  `json:"next_reset"`
	LastRequest  *Timestamp `json:"last_request,omitempty"`
}

// Remaining returns how many requests are left before NextReset, or -1 when
// the account is unlimited.
func (p *Profile) Remaining() int {
	if p.IsUnlimited {
		return -1
	}
	if n := p.MaxRequests - p.RequestCount; n > 0 {
		return n
	}
	return 0
}

// GetProfile returns the profile of the logged-in user.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	return getResource[Profile](ctx, c, ProfilePath)
}

// Timestamp decodes the server's ISO-8601 datetimes, which may omit the
// zone offset. Zoneless values are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	for _, layout := range timestampLayouts {
		if parsed, perr := time.Parse(layout, s); perr == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.Format(time.RFC3339Nano))), nil
}
