package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/cli/output"
)

var (
	prefsOutput string
	prefsColor  string
)

var preferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "Show or change output preferences",
	Long: `Show or change the preferences stored next to your sessions.

The default output format applies when -o is not given; a color preference
of "never" acts like --no-color.

Examples:
  # Show preferences
  mediscanctl config preferences

  # Default to JSON output without colors
  mediscanctl config preferences --default-output json --color never`,
	RunE: runPreferences,
}

func init() {
	preferencesCmd.Flags().StringVar(&prefsOutput, "default-output", "", "Default output format (table|json|yaml)")
	preferencesCmd.Flags().StringVar(&prefsColor, "color", "", "Color mode (auto|always|never)")
}

type preferencesView credentials.Preferences

// Details implements output.Detailer.
func (v preferencesView) Details() []output.KeyValue {
	return []output.KeyValue{
		{Key: "Default output", Value: cmdutil.EmptyOr(v.DefaultOutput, output.FormatTable.String())},
		{Key: "Color", Value: cmdutil.EmptyOr(v.Color, cmdutil.ColorAuto)},
	}
}

func runPreferences(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	prefs := store.GetPreferences()

	changed := false
	if cmd.Flags().Changed("default-output") {
		if _, err := output.ParseFormat(prefsOutput); err != nil {
			return err
		}
		prefs.DefaultOutput = prefsOutput
		changed = true
	}
	if cmd.Flags().Changed("color") {
		switch prefsColor {
		case cmdutil.ColorAuto, cmdutil.ColorAlways, cmdutil.ColorNever:
		default:
			return fmt.Errorf("invalid color mode %q (valid: auto, always, never)", prefsColor)
		}
		prefs.Color = prefsColor
		changed = true
	}

	if changed {
		if err := store.SetPreferences(prefs); err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
		cmdutil.PrintSuccess(cmd, "Preferences saved")
		return nil
	}

	return cmdutil.PrintOutput(cmd, preferencesView(prefs), false, "")
}
