package context

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/cli/prompt"
)

var useCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Switch to a different context",
	Long: `Switch to a different server context.

This changes the active context used for subsequent commands. Without a
name, the context is picked interactively.

Examples:
  # Switch to context named "production"
  mediscanctl context use production

  # Pick from a list
  mediscanctl context use`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContextUse,
}

func runContextUse(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	var contextName string
	if len(args) == 1 {
		contextName = args[0]
	} else {
		names := store.ListContexts()
		if len(names) == 0 {
			return fmt.Errorf("no contexts configured\n\n" +
				"Login to a server first:\n" +
				"  mediscanctl login --server http://localhost:8000")
		}
		contextName, err = prompt.Select("Context", names)
		if err != nil {
			return cmdutil.HandleAbort(cmd.ErrOrStderr(), err)
		}
	}

	if err := store.UseContext(contextName); err != nil {
		if errors.Is(err, credentials.ErrContextNotFound) {
			return fmt.Errorf("context '%s' not found\n\n"+
				"List available contexts:\n"+
				"  mediscanctl context list", contextName)
		}
		return fmt.Errorf("failed to switch context: %w", err)
	}

	cmdutil.PrintSuccess(cmd, fmt.Sprintf("Switched to context: %s", contextName))
	return nil
}
