package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/cli/output"
	"github.com/yammahtea/mediscan/internal/cli/timeutil"
	"github.com/yammahtea/mediscan/pkg/router"
	"github.com/yammahtea/mediscan/pkg/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long: `Display the session for the selected server.

The session is restored from the saved refresh cookie first, so this shows
what any other command would see: whether a token could be obtained, who it
belongs to, when it expires, and where the client would land.

Examples:
  # Show session status
  mediscanctl status

  # Output as JSON
  mediscanctl status -o json`,
	RunE: runStatus,
}

// SessionStatus represents the session status for display.
type SessionStatus struct {
	Server         string     `json:"server" yaml:"server"`
	Context        string     `json:"context,omitempty" yaml:"context,omitempty"`
	Username       string     `json:"username,omitempty" yaml:"username,omitempty"`
	Authenticated  bool       `json:"authenticated" yaml:"authenticated"`
	Home           string     `json:"home" yaml:"home"`
	Subject        string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	CookieExpires  *time.Time `json:"cookie_expires_at,omitempty" yaml:"cookie_expires_at,omitempty"`

	now time.Time
}

// Details implements output.Detailer.
func (s SessionStatus) Details() []output.KeyValue {
	kv := []output.KeyValue{
		{Key: "Server", Value: s.Server},
		{Key: "Context", Value: cmdutil.EmptyOr(s.Context, "-")},
		{Key: "User", Value: cmdutil.EmptyOr(s.Username, "-")},
		{Key: "Authenticated", Value: cmdutil.BoolToYesNo(s.Authenticated)},
		{Key: "Home", Value: s.Home},
	}
	if s.Subject != "" {
		kv = append(kv, output.KeyValue{Key: "Token subject", Value: s.Subject})
	}
	if s.TokenExpiresAt != nil {
		kv = append(kv, output.KeyValue{Key: "Token expires", Value: timeutil.FormatRelative(*s.TokenExpiresAt, s.now)})
	}
	if s.CookieExpires != nil {
		kv = append(kv, output.KeyValue{Key: "Session expires", Value: timeutil.FormatTime(*s.CookieExpires)})
	}
	return kv
}

func runStatus(cmd *cobra.Command, args []string) (err error) {
	s, err := cmdutil.OpenSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	d := s.Route(cmd.Context(), router.ScreenHome)

	status := SessionStatus{
		Server:        s.Server,
		Context:       s.ContextName,
		Authenticated: s.Manager.State().Authenticated(),
		Home:          d.Screen,
		now:           time.Now(),
	}

	if s.ContextName != "" {
		if c, err := s.Store.GetContext(s.ContextName); err == nil {
			status.Username = c.Username
		}
	}

	if token := s.Manager.Token(); token != "" {
		if claims, err := session.ParseClaims(token); err == nil {
			status.Subject = claims.Subject
			if !claims.ExpiresAt.IsZero() {
				exp := claims.ExpiresAt
				status.TokenExpiresAt = &exp
			}
		}
	}
	status.CookieExpires = latestExpiry(s.Jar.Saved())

	return cmdutil.PrintOutput(cmd, status, false, "")
}

// latestExpiry returns the furthest expiry among persistent cookies.
func latestExpiry(cookies []credentials.Cookie) *time.Time {
	var latest *time.Time
	for i := range cookies {
		exp := cookies[i].Expires
		if exp.IsZero() {
			continue
		}
		if latest == nil || exp.After(*latest) {
			latest = &exp
		}
	}
	return latest
}
