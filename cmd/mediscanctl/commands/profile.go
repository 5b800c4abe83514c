package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/cli/output"
	"github.com/yammahtea/mediscan/internal/cli/timeutil"
	"github.com/yammahtea/mediscan/pkg/apiclient"
	"github.com/yammahtea/mediscan/pkg/router"
	"github.com/yammahtea/mediscan/pkg/session"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your account and daily usage",
	Long: `Display the profile of the logged-in user, including how many
analysis requests remain before the daily quota resets.

Examples:
  # Show profile
  mediscanctl profile

  # Output as YAML
  mediscanctl profile -o yaml`,
	RunE: runProfile,
}

// profileView renders a profile as a detail view.
type profileView struct {
	*apiclient.Profile
	now time.Time
}

// Details implements output.Detailer.
func (v profileView) Details() []output.KeyValue {
	p := v.Profile

	usage := "unlimited"
	if !p.IsUnlimited {
		usage = fmt.Sprintf("%d / %d (%d left)", p.RequestCount, p.MaxRequests, p.Remaining())
	}
	last := "-"
	if p.LastRequest != nil {
		last = timeutil.FormatTime(p.LastRequest.Time)
	}

	return []output.KeyValue{
		{Key: "Username", Value: p.Username},
		{Key: "Email", Value: cmdutil.EmptyOr(p.Email, "-")},
		{Key: "Unlimited", Value: cmdutil.BoolToYesNo(p.IsUnlimited)},
		{Key: "Requests", Value: usage},
		{Key: "Max requests", Value: strconv.Itoa(p.MaxRequests)},
		{Key: "Next reset", Value: timeutil.FormatRelative(p.NextReset.Time, v.now)},
		{Key: "Last request", Value: last},
	}
}

func runProfile(cmd *cobra.Command, args []string) (err error) {
	s, err := cmdutil.OpenSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := cmd.Context()
	if err := s.Require(ctx, router.ScreenProfile); err != nil {
		return err
	}

	profile, err := s.Client.GetProfile(ctx)
	if err != nil {
		if session.IsSessionExpired(err) {
			return fmt.Errorf("session expired: %w", credentials.ErrNotLoggedIn)
		}
		return fmt.Errorf("failed to get profile: %w", err)
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if p.Structured() {
		return p.Print(profile)
	}
	return p.Print(profileView{Profile: profile, now: time.Now()})
}
