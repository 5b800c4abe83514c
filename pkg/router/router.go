// Package router decides which screen the client may show for a session.
//
// Screens that need an account redirect to the login screen when there is no
// token; the login screen redirects to the upload screen when there is one.
// No decision is made while the session is still bootstrapping.
package router

import (
	"fmt"
	"strings"

	"github.com/yammahtea/mediscan/pkg/session"
)

// Screen paths.
const (
	ScreenLogin   = "/login"
	ScreenUpload  = "/upload"
	ScreenProfile = "/profile"

	// ScreenHome is where authenticated users land.
	ScreenHome = ScreenUpload
)

// Action is the kind of routing decision.
type Action int

const (
	// Loading means the session is bootstrapping; show a neutral state.
	Loading Action = iota
	// Render means the requested screen may be shown.
	Render
	// Redirect means navigation must go to Decision.Screen instead.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is the outcome of routing a path.
type Decision struct {
	Action Action
	// Screen is the screen to render or redirect to. Empty while Loading.
	Screen string
}

func (d Decision) String() string {
	if d.Action == Loading {
		return d.Action.String()
	}
	return d.Action.String() + " " + d.Screen
}

// protected lists the screens that require a token.
var protected = map[string]bool{
	ScreenUpload:  true,
	ScreenProfile: true,
}

// Resolve routes path for state.
func Resolve(state session.State, path string) Decision {
	if state.Bootstrapping {
		return Decision{Action: Loading}
	}

	path = normalize(path)
	authed := state.Authenticated()

	switch {
	case path == ScreenLogin && authed:
		return Decision{Action: Redirect, Screen: ScreenHome}
	case path == ScreenLogin:
		return Decision{Action: Render, Screen: ScreenLogin}
	case protected[path] && authed:
		return Decision{Action: Render, Screen: path}
	case protected[path]:
		return Decision{Action: Redirect, Screen: ScreenLogin}
	case authed:
		return Decision{Action: Redirect, Screen: ScreenHome}
	default:
		return Decision{Action: Redirect, Screen: ScreenLogin}
	}
}

// Follow resolves path and follows redirects to the screen that ends up
// rendered. It returns a Loading decision while bootstrapping.
func Follow(state session.State, path string) Decision {
	d := Resolve(state, path)
	// Every redirect lands on a screen that renders for the same state, so
	// one hop is enough.
	if d.Action == Redirect {
		return Resolve(state, d.Screen)
	}
	return d
}

// StateSource provides the current session state.
type StateSource interface {
	State() session.State
}

// Guard routes against a live session.
type Guard struct {
	src StateSource
}

// NewGuard returns a Guard reading state from src.
func NewGuard(src StateSource) *Guard {
	return &Guard{src: src}
}

// Resolve routes path for the current session state.
func (g *Guard) Resolve(path string) Decision {
	return Resolve(g.src.State(), path)
}

// Follow routes path for the current session state, following redirects.
func (g *Guard) Follow(path string) Decision {
	return Follow(g.src.State(), path)
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
