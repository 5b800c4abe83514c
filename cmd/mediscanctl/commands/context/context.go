// Package context implements context management subcommands for mediscanctl.
package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/internal/cli/credentials"
)

// Cmd is the context subcommand.
var Cmd = &cobra.Command{
	Use:   "context",
	Short: "Manage server contexts",
	Long: `Manage saved sessions for multiple MediScan servers.

Each context records a server URL, the last username and the server's
refresh cookie. Switching context switches the session used by other
commands.

Subcommands:
  list     List all configured contexts
  use      Switch to a different context
  current  Show current context
  rename   Rename a context
  delete   Delete a context`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(useCmd)
	Cmd.AddCommand(currentCmd)
	Cmd.AddCommand(renameCmd)
	Cmd.AddCommand(deleteCmd)
}

// ContextInfo represents context information for output.
type ContextInfo struct {
	Name      string `json:"name" yaml:"name"`
	Current   bool   `json:"current" yaml:"current"`
	ServerURL string `json:"server_url" yaml:"server_url"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	Session   bool   `json:"session" yaml:"session"`
}

func newContextInfo(name, current string, c *credentials.Context) ContextInfo {
	return ContextInfo{
		Name:      name,
		Current:   name == current,
		ServerURL: c.ServerURL,
		Username:  c.Username,
		Session:   c.HasSession(),
	}
}

func openStore() (*credentials.Store, error) {
	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}
	return store, nil
}
