package context

import (
	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured contexts",
	Long: `List all configured server contexts.

Shows the context name, server URL, username and whether a saved session
can be restored. The current context is marked with an asterisk (*).

Examples:
  # List contexts as table
  mediscanctl context list

  # List as JSON
  mediscanctl context list -o json`,
	RunE: runContextList,
}

// ContextList is a list of contexts for table rendering.
type ContextList []ContextInfo

// Headers implements TableRenderer.
func (cl ContextList) Headers() []string {
	return []string{"", "NAME", "SERVER", "USER", "SESSION"}
}

// Rows implements TableRenderer.
func (cl ContextList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, c := range cl {
		current := ""
		if c.Current {
			current = "*"
		}
		rows = append(rows, []string{current, c.Name, c.ServerURL, cmdutil.EmptyOr(c.Username, "-"), cmdutil.BoolToYesNo(c.Session)})
	}
	return rows
}

func runContextList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	contextNames := store.ListContexts()
	currentContext := store.GetCurrentContextName()

	contexts := make(ContextList, 0, len(contextNames))
	for _, name := range contextNames {
		ctx, err := store.GetContext(name)
		if err != nil {
			continue
		}
		contexts = append(contexts, newContextInfo(name, currentContext, ctx))
	}

	return cmdutil.PrintOutput(cmd, contexts, len(contexts) == 0,
		"No contexts configured. Use 'mediscanctl login --server <url>' to create one.")
}
