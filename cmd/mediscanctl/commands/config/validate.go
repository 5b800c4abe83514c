package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the mediscanctl configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  mediscanctl config validate

  # Validate specific config file
  mediscanctl config validate --config ./mediscan.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath()

	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	var warnings []string
	if _, err := os.Stat(path); os.IsNotExist(err) {
		warnings = append(warnings, "Configuration file not found - using defaults")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Insecure {
		warnings = append(warnings, "Traces are exported without TLS")
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(w, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	return nil
}
