// Package cmdutil provides shared utilities for mediscanctl commands.
package cmdutil

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/cli/output"
	"github.com/yammahtea/mediscan/internal/cli/prompt"
)

// Color preference values.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	ServerURL  string
	Output     string
	NoColor    bool
	Verbose    bool
}

// SyncFlags copies the root persistent flags into Flags.
func SyncFlags(cmd *cobra.Command) {
	Flags.ConfigFile, _ = cmd.Flags().GetString("config")
	Flags.ServerURL, _ = cmd.Flags().GetString("server")
	Flags.Output, _ = cmd.Flags().GetString("output")
	Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
}

// ApplyPreferences fills output flags left unset on the command line from
// the preferences saved in the credentials store.
func ApplyPreferences(cmd *cobra.Command) {
	store, err := credentials.NewStore()
	if err != nil {
		return
	}
	prefs := store.GetPreferences()
	if !cmd.Flags().Changed("output") && prefs.DefaultOutput != "" {
		Flags.Output = prefs.DefaultOutput
	}
	if !cmd.Flags().Changed("no-color") && prefs.Color == ColorNever {
		Flags.NoColor = true
	}
}

// Printer returns a printer writing to the command's output stream in the
// format selected by --output.
func Printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format, !Flags.NoColor), nil
}

// PrintOutput prints data in the selected format. In table format emptyMsg
// is printed instead when isEmpty is set.
func PrintOutput(cmd *cobra.Command, data any, isEmpty bool, emptyMsg string) error {
	p, err := Printer(cmd)
	if err != nil {
		return err
	}
	if isEmpty && !p.Structured() {
		p.Printf("%s\n", emptyMsg)
		return nil
	}
	return p.Print(data)
}

// PrintSuccess prints a success message in table format. Structured output
// stays machine-readable, so the message is dropped there.
func PrintSuccess(cmd *cobra.Command, msg string) {
	p, err := Printer(cmd)
	if err != nil || p.Structured() {
		return
	}
	p.Success(msg)
}

// PrintWarning prints a warning to the command's error stream.
func PrintWarning(cmd *cobra.Command, msg string) {
	output.NewPrinter(cmd.ErrOrStderr(), output.FormatTable, !Flags.NoColor).Warning(msg)
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns the value if not empty, otherwise returns the fallback.
// Useful for table display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// HandleAbort checks if error is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original error.
func HandleAbort(w io.Writer, err error) error {
	if prompt.IsAborted(err) {
		_, _ = fmt.Fprintln(w, "\nAborted.")
		return nil
	}
	return err
}

// RunDeleteWithConfirmation asks before calling deleteFn unless force is set.
func RunDeleteWithConfirmation(cmd *cobra.Command, resourceType, name string, force bool, deleteFn func() error) error {
	if !force {
		confirmed, err := prompt.Confirm(fmt.Sprintf("Delete %s '%s'?", resourceType, name), false)
		if err != nil {
			return HandleAbort(cmd.ErrOrStderr(), err)
		}
		if !confirmed {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	if err := deleteFn(); err != nil {
		return err
	}

	PrintSuccess(cmd, fmt.Sprintf("%s '%s' deleted successfully", resourceType, name))
	return nil
}
