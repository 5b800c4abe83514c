// Package config implements configuration subcommands for mediscanctl.
package config

import (
	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/pkg/config"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage client configuration",
	Long: `Manage the mediscanctl configuration file.

Subcommands:
  init         Write a commented default configuration
  show         Print the effective configuration
  validate     Check the configuration file
  edit         Open the configuration in your editor
  schema       Print the JSON schema of the configuration
  preferences  Show or change output preferences`,
	// Config commands must work on a broken file, so the root setup
	// (which loads and validates it) is skipped.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmdutil.SyncFlags(cmd)
		cmdutil.ApplyPreferences(cmd)
		return nil
	},
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(preferencesCmd)
}

// configPath returns the --config value or the default location.
func configPath() string {
	if cmdutil.Flags.ConfigFile != "" {
		return cmdutil.Flags.ConfigFile
	}
	return config.GetDefaultConfigPath()
}
