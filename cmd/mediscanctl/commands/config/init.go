package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Write a commented configuration file with default values.

Examples:
  # Create $XDG_CONFIG_HOME/mediscan/config.yaml
  mediscanctl config init

  # Overwrite an existing file
  mediscanctl config init --force

  # Create at a specific path
  mediscanctl config init --config ./mediscan.yaml`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if err := config.InitConfigToPath(path, initForce); err != nil {
		return err
	}

	cmdutil.PrintSuccess(cmd, fmt.Sprintf("Configuration written to %s", path))
	return nil
}
