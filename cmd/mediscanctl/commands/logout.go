package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/logger"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long: `End the session on the server and forget the saved refresh cookie.

The server URL and context are kept for easy re-login. The local session is
cleared even when the server cannot be reached.

Examples:
  # Logout from current context
  mediscanctl logout`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) (err error) {
	s, err := cmdutil.OpenSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	if s.ContextName == "" {
		return credentials.ErrNotLoggedIn
	}

	ctx := cmd.Context()
	s.Manager.Bootstrap(ctx)

	if s.Manager.State().Authenticated() {
		if err := s.Manager.Logout(ctx); err != nil {
			cmdutil.PrintWarning(cmd, fmt.Sprintf("Server logout failed: %v", err))
		}
	}

	// Drop the refresh cookie whatever the server did with it.
	if err := s.Jar.Clear(); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	if s.ContextName == s.Store.GetCurrentContextName() {
		err = s.Store.ClearCurrentContext()
	} else {
		err = s.Store.UpdateContextCookies(s.ContextName, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	logger.Debug("local session cleared", logger.KeyContext, s.ContextName)

	cmdutil.PrintSuccess(cmd, fmt.Sprintf("Logged out from context: %s", s.ContextName))
	return nil
}
