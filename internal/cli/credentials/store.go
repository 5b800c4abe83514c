// Package credentials provides session persistence and context management for mediscanctl.
//
// Only the refresh cookie set by the server is persisted. The access token is
// held in memory for the lifetime of a single command and recovered through
// the session bootstrap on the next invocation.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultConfigDir is the default directory for mediscanctl state.
	DefaultConfigDir = "mediscan"
	// ConfigFileName is the name of the credentials file.
	ConfigFileName = "credentials.json"
	// FilePermissions for credential files (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for config directories.
	DirPermissions = 0700
)

var (
	// ErrNoCurrentContext indicates no context is currently set.
	ErrNoCurrentContext = errors.New("no current context set")
	// ErrContextNotFound indicates the requested context doesn't exist.
	ErrContextNotFound = errors.New("context not found")
	// ErrNotLoggedIn indicates no session could be recovered.
	ErrNotLoggedIn = errors.New("not logged in - run 'mediscanctl login' first")
)

// Context represents a connection context to a MediScan API server.
type Context struct {
	ServerURL string    `json:"server_url"`
	Username  string    `json:"username,omitempty"`
	Cookies   []Cookie  `json:"cookies,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// HasSession reports whether the context holds at least one unexpired cookie,
// i.e. whether a bootstrap can possibly restore a session.
func (c *Context) HasSession() bool {
	return len(liveCookies(c.Cookies, time.Now())) > 0
}

// Preferences represents user preferences.
type Preferences struct {
	DefaultOutput string `json:"default_output,omitempty"` // table, json, yaml
	Color         string `json:"color,omitempty"`          // auto, always, never
}

// Config represents the complete credentials file.
type Config struct {
	CurrentContext string              `json:"current_context"`
	Contexts       map[string]*Context `json:"contexts"`
	Preferences    Preferences         `json:"preferences,omitempty"`
}

// Store manages credential storage and retrieval.
type Store struct {
	configPath string
	config     *Config
}

// NewStore creates a credential store at the default location.
func NewStore() (*Store, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(configPath)
}

// NewStoreAt creates a credential store backed by the file at configPath.
func NewStoreAt(configPath string) (*Store, error) {
	store := &Store{
		configPath: configPath,
	}

	// Load existing config or create new
	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read credentials: %w", err)
		}
		store.config = &Config{
			Contexts: make(map[string]*Context),
		}
	}
	if store.config.Contexts == nil {
		store.config.Contexts = make(map[string]*Context)
	}

	return store, nil
}

// getConfigPath returns the path to the credentials file.
func getConfigPath() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise ~/.config
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, DefaultConfigDir, ConfigFileName), nil
}

// load reads the config from disk.
func (s *Store) load() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}

	s.config = &Config{}
	return json.Unmarshal(data, s.config)
}

// save writes the config to disk.
func (s *Store) save() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configPath, data, FilePermissions)
}

// GetCurrentContext returns the current context.
func (s *Store) GetCurrentContext() (*Context, error) {
	if s.config.CurrentContext == "" {
		return nil, ErrNoCurrentContext
	}

	ctx, ok := s.config.Contexts[s.config.CurrentContext]
	if !ok {
		return nil, ErrContextNotFound
	}

	return ctx, nil
}

// GetCurrentContextName returns the name of the current context.
func (s *Store) GetCurrentContextName() string {
	return s.config.CurrentContext
}

// GetContext returns a specific context by name.
func (s *Store) GetContext(name string) (*Context, error) {
	ctx, ok := s.config.Contexts[name]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// ListContexts returns all context names in sorted order.
func (s *Store) ListContexts() []string {
	names := make([]string, 0, len(s.config.Contexts))
	for name := range s.config.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetContext creates or updates a context.
func (s *Store) SetContext(name string, ctx *Context) error {
	s.config.Contexts[name] = ctx
	return s.save()
}

// UseContext switches to a different context.
func (s *Store) UseContext(name string) error {
	if _, ok := s.config.Contexts[name]; !ok {
		return ErrContextNotFound
	}
	s.config.CurrentContext = name
	return s.save()
}

// RenameContext renames a context.
func (s *Store) RenameContext(oldName, newName string) error {
	ctx, ok := s.config.Contexts[oldName]
	if !ok {
		return ErrContextNotFound
	}

	delete(s.config.Contexts, oldName)
	s.config.Contexts[newName] = ctx

	if s.config.CurrentContext == oldName {
		s.config.CurrentContext = newName
	}

	return s.save()
}

// DeleteContext removes a context.
func (s *Store) DeleteContext(name string) error {
	if _, ok := s.config.Contexts[name]; !ok {
		return ErrContextNotFound
	}

	delete(s.config.Contexts, name)

	if s.config.CurrentContext == name {
		s.config.CurrentContext = ""
	}

	return s.save()
}

// UpdateContextCookies replaces the persisted cookies of the named context.
func (s *Store) UpdateContextCookies(name string, cookies []Cookie) error {
	ctx, err := s.GetContext(name)
	if err != nil {
		return err
	}

	ctx.Cookies = cookies
	ctx.UpdatedAt = time.Now().UTC()

	return s.save()
}

// ClearCurrentContext drops the session of the current context (logout).
// The server URL and username are kept.
func (s *Store) ClearCurrentContext() error {
	ctx, err := s.GetCurrentContext()
	if err != nil {
		return err
	}

	ctx.Cookies = nil
	ctx.UpdatedAt = time.Now().UTC()

	return s.save()
}

// GetPreferences returns the user preferences.
func (s *Store) GetPreferences() Preferences {
	return s.config.Preferences
}

// SetPreferences updates the user preferences.
func (s *Store) SetPreferences(prefs Preferences) error {
	s.config.Preferences = prefs
	return s.save()
}

// ConfigPath returns the path to the credentials file.
func (s *Store) ConfigPath() string {
	return s.configPath
}

// GenerateContextName derives a context name from a server URL, e.g.
// "api.example.com" or "localhost-8000". It falls back to "default".
func GenerateContextName(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return "default"
	}
	return strings.ReplaceAll(u.Host, ":", "-")
}
