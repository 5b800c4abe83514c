package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestContextHasSession(t *testing.T) {
	tests := []struct {
		name     string
		cookies  []Cookie
		expected bool
	}{
		{
			name:     "no cookies",
			expected: false,
		},
		{
			name:     "live cookie",
			cookies:  []Cookie{{Name: "refresh_token", Expires: time.Now().Add(time.Hour)}},
			expected: true,
		},
		{
			name:     "session cookie",
			cookies:  []Cookie{{Name: "refresh_token"}},
			expected: true,
		},
		{
			name:     "expired cookie",
			cookies:  []Cookie{{Name: "refresh_token", Expires: time.Now().Add(-time.Minute)}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{Cookies: tt.cookies}
			assert.Equal(t, tt.expected, ctx.HasSession())
		})
	}
}

func TestStoreOperations(t *testing.T) {
	store := newTestStore(t)

	// Verify config file location
	expectedPath := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), DefaultConfigDir, ConfigFileName)
	assert.Equal(t, expectedPath, store.ConfigPath())

	// Test empty state
	_, err := store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.ListContexts())

	// Add a context
	err = store.SetContext("default", &Context{
		ServerURL: "http://localhost:8000",
		Username:  "doctor",
	})
	require.NoError(t, err)

	err = store.UseContext("default")
	require.NoError(t, err)

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", current.ServerURL)
	assert.Equal(t, "doctor", current.Username)

	// Add another context
	err = store.SetContext("production", &Context{
		ServerURL: "https://api.mediscan.example",
		Username:  "nurse",
	})
	require.NoError(t, err)

	contexts := store.ListContexts()
	assert.Len(t, contexts, 2)
	assert.Contains(t, contexts, "default")
	assert.Contains(t, contexts, "production")

	// Switch context
	err = store.UseContext("production")
	require.NoError(t, err)
	assert.Equal(t, "production", store.GetCurrentContextName())

	// Rename context
	err = store.RenameContext("production", "prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", store.GetCurrentContextName())

	// Delete context
	err = store.DeleteContext("prod")
	require.NoError(t, err)
	assert.Empty(t, store.GetCurrentContextName())

	_, err = store.GetContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)

	err = store.UseContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)

	err = store.DeleteContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)
}

func TestStorePersists(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetContext("default", &Context{ServerURL: "http://localhost:8000"}))
	require.NoError(t, store.UseContext("default"))
	require.NoError(t, store.UpdateContextCookies("default", []Cookie{{
		URL:   "http://localhost:8000/login",
		Name:  "refresh_token",
		Value: "abc",
		Path:  "/",
	}}))

	info, err := os.Stat(store.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePermissions), info.Mode().Perm())

	reopened, err := NewStoreAt(store.ConfigPath())
	require.NoError(t, err)

	current, err := reopened.GetCurrentContext()
	require.NoError(t, err)
	require.Len(t, current.Cookies, 1)
	assert.Equal(t, "abc", current.Cookies[0].Value)
	assert.False(t, current.UpdatedAt.IsZero())
	assert.True(t, current.HasSession())
}

func TestStoreUpdateCookiesWithoutContext(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateContextCookies("missing", nil)
	assert.ErrorIs(t, err, ErrContextNotFound)

	err = store.ClearCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
}

func TestStoreClearCurrentContext(t *testing.T) {
	store := newTestStore(t)

	err := store.SetContext("default", &Context{
		ServerURL: "http://localhost:8000",
		Username:  "doctor",
		Cookies:   []Cookie{{Name: "refresh_token", Value: "abc"}},
	})
	require.NoError(t, err)
	require.NoError(t, store.UseContext("default"))

	require.NoError(t, store.ClearCurrentContext())

	// Session cleared but server/user remain
	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Empty(t, current.Cookies)
	assert.False(t, current.HasSession())
	assert.Equal(t, "http://localhost:8000", current.ServerURL)
	assert.Equal(t, "doctor", current.Username)
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), FilePermissions))

	_, err := NewStoreAt(path)
	assert.Error(t, err)
}

func TestStorePreferences(t *testing.T) {
	store := newTestStore(t)

	prefs := store.GetPreferences()
	assert.Empty(t, prefs.DefaultOutput)
	assert.Empty(t, prefs.Color)

	err := store.SetPreferences(Preferences{
		DefaultOutput: "json",
		Color:         "never",
	})
	require.NoError(t, err)

	reopened, err := NewStoreAt(store.ConfigPath())
	require.NoError(t, err)
	prefs = reopened.GetPreferences()
	assert.Equal(t, "json", prefs.DefaultOutput)
	assert.Equal(t, "never", prefs.Color)
}

func TestGenerateContextName(t *testing.T) {
	assert.Equal(t, "localhost-8000", GenerateContextName("http://localhost:8000"))
	assert.Equal(t, "api.mediscan.example", GenerateContextName("https://api.mediscan.example/v1"))
	assert.Equal(t, "default", GenerateContextName("not a url"))
	assert.Equal(t, "default", GenerateContextName(""))
}
