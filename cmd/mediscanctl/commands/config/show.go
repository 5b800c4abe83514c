package config

import (
	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/output"
	"github.com/yammahtea/mediscan/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and MEDISCAN_ environment
variables are applied.

Examples:
  # Show as YAML (default)
  mediscanctl config show

  # Show as JSON
  mediscanctl config show -o json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if p.Format() == output.FormatJSON {
		return p.Print(cfg)
	}
	// The file format is YAML, so that is what a table view shows too.
	return output.PrintYAML(p.Writer(), cfg)
}
