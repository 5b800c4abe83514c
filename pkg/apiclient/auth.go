package apiclient

import (
	"context"
	"net/url"

	"github.com/yammahtea/mediscan/pkg/transport"
)

// TokenResponse represents the response from login/refresh endpoints.
// The refresh credential is never part of it; the server sets it as an
// httpOnly cookie.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// LogoutResponse is the optional body returned by the logout endpoint.
type LogoutResponse struct {
	Message string `json:"message"`
}

// Login authenticates with a username (or email) and password, sent as
// form fields, and returns the access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp TokenResponse
	if err := c.send(ctx, transport.NewFormRequest(LoginPath, form), &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Refresh exchanges the refresh cookie held by the transport's jar for a new
// access token.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var resp TokenResponse
	if err := c.post(ctx, RefreshPath, nil, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Logout invalidates the current access token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, LogoutPath, nil, nil)
}
