package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/prompt"
	"github.com/yammahtea/mediscan/pkg/router"
	"github.com/yammahtea/mediscan/pkg/transport"
)

var (
	loginUsername string
	loginPassword string
	loginContext  string
	loginForce    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a MediScan server",
	Long: `Sign in to a MediScan server and keep the session for later commands.

The server sets a refresh cookie on success. Only that cookie is saved in
the credentials store; access tokens stay in memory and are obtained again
by each command.

When a saved session can still be restored, login reports it and does
nothing unless --force is given.

Examples:
  # First login to a server
  mediscanctl login --server http://localhost:8000 --username doctor

  # Login with password on command line (less secure)
  mediscanctl login -u doctor -p secret

  # Save the session under a specific context name
  mediscanctl login --server https://api.example.com --context prod`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password")
	loginCmd.Flags().StringVar(&loginContext, "context", "", "Context name to save the session under")
	loginCmd.Flags().BoolVarP(&loginForce, "force", "f", false, "Sign in again even if a session exists")
}

func runLogin(cmd *cobra.Command, args []string) (err error) {
	s, err := cmdutil.OpenSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	ctx := cmd.Context()

	// An authenticated session is sent away from the login screen, so the
	// followed route ends on another screen.
	if d := s.Route(ctx, router.ScreenLogin); d.Screen != router.ScreenLogin && !loginForce {
		cmdutil.PrintSuccess(cmd, fmt.Sprintf("Already logged in to %s (use --force to sign in again)", s.Server))
		return nil
	}

	username, password, err := prompt.Credentials(loginUsername, loginPassword)
	if err != nil {
		return cmdutil.HandleAbort(cmd.ErrOrStderr(), err)
	}

	if err := s.Manager.Login(ctx, username, password); err != nil {
		if transport.IsUnauthorized(err) {
			return fmt.Errorf("login failed: invalid username or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.Adopt(loginContext, username); err != nil {
		return err
	}

	cmdutil.PrintSuccess(cmd, fmt.Sprintf("Logged in to %s as %s", s.Server, username))
	p, err := cmdutil.Printer(cmd)
	if err == nil && !p.Structured() {
		p.Printf("Context: %s\n", s.ContextName)
		p.Printf("Session saved to: %s\n", s.Store.ConfigPath())
	}
	return nil
}
