package context

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Long: `Delete a server context.

This removes the saved server URL and session cookie for the context. The
session is not ended on the server; run 'mediscanctl logout' first for that.

Examples:
  # Delete context named "staging"
  mediscanctl context delete staging

  # Delete without confirmation
  mediscanctl context delete staging --force`,
	Args: cobra.ExactArgs(1),
	RunE: runContextDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runContextDelete(cmd *cobra.Command, args []string) error {
	contextName := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}

	if _, err = store.GetContext(contextName); err != nil {
		if errors.Is(err, credentials.ErrContextNotFound) {
			return fmt.Errorf("context '%s' not found", contextName)
		}
		return fmt.Errorf("failed to get context: %w", err)
	}

	return cmdutil.RunDeleteWithConfirmation(cmd, "Context", contextName, deleteForce, func() error {
		return store.DeleteContext(contextName)
	})
}
