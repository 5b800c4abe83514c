package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yammahtea/mediscan/cmd/mediscanctl/cmdutil"
	"github.com/yammahtea/mediscan/internal/cli/output"
	"github.com/yammahtea/mediscan/pkg/router"
)

var routeCmd = &cobra.Command{
	Use:   "route [path]",
	Short: "Show where a screen path leads",
	Long: `Restore the session and show the routing decision for a screen path.

Protected screens redirect to the login screen without a session, and the
login screen redirects home with one. Without a path the home screen is
routed.

Examples:
  # Where does the profile screen lead?
  mediscanctl route /profile

  # Output as JSON
  mediscanctl route /login -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoute,
}

// RouteResult is a routing decision for display.
type RouteResult struct {
	Path          string `json:"path" yaml:"path"`
	First         string `json:"first" yaml:"first"`
	Screen        string `json:"screen" yaml:"screen"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
}

// Details implements output.Detailer.
func (r RouteResult) Details() []output.KeyValue {
	return []output.KeyValue{
		{Key: "Path", Value: r.Path},
		{Key: "Decision", Value: r.First},
		{Key: "Screen", Value: r.Screen},
		{Key: "Authenticated", Value: cmdutil.BoolToYesNo(r.Authenticated)},
	}
}

func runRoute(cmd *cobra.Command, args []string) (err error) {
	path := router.ScreenHome
	if len(args) == 1 {
		path = args[0]
	}

	s, err := cmdutil.OpenSession()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close()) }()

	final := s.Route(cmd.Context(), path)
	first := s.Guard.Resolve(path)

	return cmdutil.PrintOutput(cmd, RouteResult{
		Path:          path,
		First:         first.String(),
		Screen:        final.Screen,
		Authenticated: s.Manager.State().Authenticated(),
	}, false, "")
}
