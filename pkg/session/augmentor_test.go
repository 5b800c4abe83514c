package session

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yammahtea/mediscan/pkg/transport"
)

func TestAugmentor(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		retried  bool
		existing string
		target   string
		want     string
	}{
		{name: "token present", token: "abc", target: "/ping", want: "Bearer abc"},
		{name: "token absent", target: "/ping", want: ""},
		{name: "token absent keeps existing header", target: "/ping", existing: "Bearer manual", want: "Bearer manual"},
		{name: "retried keeps coordinator header", token: "stale", retried: true, existing: "Bearer fresh", target: "/ping", want: "Bearer fresh"},
		{name: "replaces older bearer", token: "new", existing: "Bearer old", target: "/ping", want: "Bearer new"},
		{name: "refresh endpoint is not special", token: "abc", target: DefaultRefreshPath, want: "Bearer abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			store.SetToken(tt.token)

			req := transport.NewRequest(http.MethodGet, tt.target, nil)
			req.Retried = tt.retried
			if tt.existing != "" {
				req.Header.Set("Authorization", tt.existing)
			}

			NewAugmentor(store).Hook(req)
			assert.Equal(t, tt.want, req.Authorization())
		})
	}
}

func TestAugmentorReadsTokenAtCallTime(t *testing.T) {
	store := NewStore()
	aug := NewAugmentor(store)

	store.SetToken("first")
	req := transport.NewRequest(http.MethodGet, "/ping", nil)
	aug.Hook(req)
	assert.Equal(t, "Bearer first", req.Authorization())

	store.SetToken("second")
	req = transport.NewRequest(http.MethodGet, "/ping", nil)
	aug.Hook(req)
	assert.Equal(t, "Bearer second", req.Authorization())
}
