package context

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
)

var renameCmd = &cobra.Command{
	Use:   "rename <old-name> <new-name>",
	Short: "Rename a context",
	Long: `Rename an existing server context.

Examples:
  # Rename context from "localhost-8000" to "local"
  mediscanctl context rename localhost-8000 local`,
	Args: cobra.ExactArgs(2),
	RunE: runContextRename,
}

func runContextRename(cmd *cobra.Command, args []string) error {
	oldName := args[0]
	newName := args[1]

	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.RenameContext(oldName, newName); err != nil {
		if errors.Is(err, credentials.ErrContextNotFound) {
			return fmt.Errorf("context '%s' not found", oldName)
		}
		return fmt.Errorf("failed to rename context: %w", err)
	}

	cmdutil.PrintSuccess(cmd, fmt.Sprintf("Context renamed: %s -> %s", oldName, newName))
	return nil
}
