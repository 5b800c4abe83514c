// Package commands implements the CLI commands for mediscanctl.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	configcmd "github.com/yammahtea/mediscan/cmd/mediscanctl/commands/config"
	ctxcmd "github.com/yammahtea/mediscan/cmd/mediscanctl/commands/context"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/logger"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mediscanctl",
	Short: "MediScan command-line client",
	Long: `mediscanctl is the command-line client for the MediScan API.

It keeps you signed in between invocations: only the server's refresh
cookie is stored on disk, and every command restores the session from it
before running. Expired access tokens are refreshed transparently.

Use "mediscanctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.SyncFlags(cmd)
		cmdutil.ApplyPreferences(cmd)
		return cmdutil.Setup(cmd.Context(), Version)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Traces and metrics are flushed whether or not the command
// succeeds.
func Execute() error {
	err := rootCmd.Execute()
	if shutdownErr := cmdutil.Shutdown(); shutdownErr != nil {
		logger.Warn("shutdown incomplete", logger.KeyError, shutdownErr)
	}
	return err
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/mediscan/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Server URL (overrides the current context)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(ctxcmd.Cmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// ExitCode maps an error returned by Execute to a process exit code:
// 2 when the user is not logged in, 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, credentials.ErrNotLoggedIn) {
		return 2
	}
	return 1
}
