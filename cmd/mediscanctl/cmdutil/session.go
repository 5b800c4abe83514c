package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yammahtea/mediscan/internal/cli/credentials"
	"github.com/yammahtea/mediscan/internal/logger"
	"github.com/yammahtea/mediscan/pkg/apiclient"
	"github.com/yammahtea/mediscan/pkg/metrics"
	"github.com/yammahtea/mediscan/pkg/router"
	"github.com/yammahtea/mediscan/pkg/session"
	"github.com/yammahtea/mediscan/pkg/transport"
)

// Session is the client side of one command: the API client, the session
// manager with its hooks registered, and the cookie jar persisted to the
// credentials store when the command ends.
type Session struct {
	Server      string
	ContextName string

	Store   *credentials.Store
	Jar     *credentials.Jar
	Client  *apiclient.Client
	Manager *session.Manager
	Guard   *router.Guard
}

// OpenSession builds a Session for the server selected by --server, the
// current context, or the configuration, in that order.
func OpenSession() (*Session, error) {
	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential store: %w", err)
	}
	return OpenSessionWith(store)
}

// OpenSessionWith builds a Session on an existing credentials store.
func OpenSessionWith(store *credentials.Store) (*Session, error) {
	cfg := Config()

	server, name, err := resolveServer(store, Flags.ServerURL, cfg.Server.URL)
	if err != nil {
		return nil, err
	}

	var saved []credentials.Cookie
	if name != "" {
		if c, err := store.GetContext(name); err == nil {
			saved = c.Cookies
		}
	}

	jar, err := credentials.NewJar(saved)
	if err != nil {
		return nil, err
	}

	client, err := apiclient.New(server,
		transport.WithTimeout(cfg.Server.Timeout),
		transport.WithUserAgent(cfg.Server.UserAgent),
		transport.WithCookieJar(jar),
	)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(client.Transport(), client, session.Options{
		RefreshPath: apiclient.RefreshPath,
		LoginPath:   apiclient.LoginPath,
		Metrics:     metrics.NewSessionMetrics(),
	})
	mgr.Start()

	logger.Debug("session opened",
		logger.KeyServer, server,
		logger.KeyContext, name,
		"saved_cookies", len(saved))

	return &Session{
		Server:      server,
		ContextName: name,
		Store:       store,
		Jar:         jar,
		Client:      client,
		Manager:     mgr,
		Guard:       router.NewGuard(mgr),
	}, nil
}

// Require bootstraps the session and checks that screen may be shown.
// It returns credentials.ErrNotLoggedIn when the router sends the user to
// the login screen instead.
func (s *Session) Require(ctx context.Context, screen string) error {
	d := s.Route(ctx, screen)
	if d.Action == router.Render && d.Screen == router.ScreenLogin && screen != router.ScreenLogin {
		return credentials.ErrNotLoggedIn
	}
	return nil
}

// Route bootstraps the session and returns the screen that ends up rendered
// for path.
func (s *Session) Route(ctx context.Context, path string) router.Decision {
	s.Manager.Bootstrap(ctx)
	d := s.Guard.Follow(path)
	logger.DebugCtx(ctx, "routed", logger.KeyTarget, path, "decision", d.String())
	return d
}

// Adopt records the session under a context named name (generated from the
// server URL when empty) and makes it current.
func (s *Session) Adopt(name, username string) error {
	if name == "" {
		name = s.ContextName
	}
	if name == "" {
		name = credentials.GenerateContextName(s.Server)
	}

	ctx := &credentials.Context{
		ServerURL: s.Server,
		Username:  username,
		Cookies:   s.Jar.Saved(),
	}
	if err := s.Store.SetContext(name, ctx); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if err := s.Store.UseContext(name); err != nil {
		return fmt.Errorf("failed to set current context: %w", err)
	}
	s.ContextName = name
	return nil
}

// Close unregisters the session hooks and persists cookie changes made by
// the server during the command.
func (s *Session) Close() error {
	err := s.Manager.Close()

	if s.ContextName != "" && s.Jar.Changed() {
		saveErr := s.Store.UpdateContextCookies(s.ContextName, s.Jar.Saved())
		if saveErr != nil && !errors.Is(saveErr, credentials.ErrContextNotFound) {
			err = errors.Join(err, fmt.Errorf("failed to save session: %w", saveErr))
		}
	}
	return err
}

// resolveServer picks the server URL and the context holding its cookies.
// An explicit URL selects the first context saved for the same server.
func resolveServer(store *credentials.Store, flagURL, configURL string) (server, contextName string, err error) {
	if flagURL != "" {
		server, err = NormalizeServerURL(flagURL)
		if err != nil {
			return "", "", err
		}
		current := store.GetCurrentContextName()
		if c, err := store.GetContext(current); err == nil && c.ServerURL == server {
			return server, current, nil
		}
		for _, name := range store.ListContexts() {
			if c, err := store.GetContext(name); err == nil && c.ServerURL == server {
				return server, name, nil
			}
		}
		return server, "", nil
	}

	if c, err := store.GetCurrentContext(); err == nil && c.ServerURL != "" {
		return c.ServerURL, store.GetCurrentContextName(), nil
	}

	server, err = NormalizeServerURL(configURL)
	return server, "", err
}

// NormalizeServerURL defaults the scheme to http and drops trailing slashes.
func NormalizeServerURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("no server URL configured")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}
