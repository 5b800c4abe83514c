package context

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/output"
	"github.com/yammahtea/mediscan/internal/cli/timeutil"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show current context",
	Long: `Display information about the current active context.

The session column only reflects the saved cookie; use 'mediscanctl status'
to check that the server still accepts it.

Examples:
  # Show current context
  mediscanctl context current

  # Show as JSON
  mediscanctl context current --output json`,
	RunE: runContextCurrent,
}

type currentView struct {
	ContextInfo
	updated string
}

// Details implements output.Detailer.
func (v currentView) Details() []output.KeyValue {
	status := "Not logged in"
	if v.Session {
		status = "Session saved"
	}
	return []output.KeyValue{
		{Key: "Context", Value: v.Name},
		{Key: "Server", Value: v.ServerURL},
		{Key: "User", Value: cmdutil.EmptyOr(v.Username, "-")},
		{Key: "Status", Value: status},
		{Key: "Updated", Value: v.updated},
	}
}

func runContextCurrent(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	contextName := store.GetCurrentContextName()
	if contextName == "" {
		return fmt.Errorf("no current context set\n\n" +
			"Login to a server first:\n" +
			"  mediscanctl login --server http://localhost:8000")
	}

	ctx, err := store.GetContext(contextName)
	if err != nil {
		return fmt.Errorf("failed to get context: %w", err)
	}

	info := newContextInfo(contextName, contextName, ctx)

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if p.Structured() {
		return p.Print(info)
	}
	return p.Print(currentView{ContextInfo: info, updated: timeutil.FormatTime(ctx.UpdatedAt)})
}
