// Package apiclient provides the mediscan REST API client.
//
// Every call goes through a transport.Transport, so the session hooks
// registered on it (bearer stamping, silent refresh) apply to all of them.
package apiclient

import (
	"context"
	"net/http"

	"github.com/yammahtea/mediscan/pkg/transport"
)

// API paths.
const (
	LoginPath   = "/login"
	RefreshPath = "/refresh"
	LogoutPath  = "/logout"
	ProfilePath = "/profile/me"
)

// Client is the mediscan API client.
type Client struct {
	transport *transport.Transport
}

// New creates a client for baseURL with a private transport.
func New(baseURL string, opts ...transport.Option) (*Client, error) {
	t, err := transport.New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(t), nil
}

// NewWithTransport creates a client that shares t with other users of it.
func NewWithTransport(t *transport.Transport) *Client {
	return &Client{transport: t}
}

// Transport returns the underlying transport.
func (c *Client) Transport() *transport.Transport {
	return c.transport
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL()
}

// do sends a JSON request and decodes the response into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req, err := transport.NewJSONRequest(method, path, body)
	if err != nil {
		return err
	}
	return c.send(ctx, req, result)
}

// send issues req and decodes the response into result.
func (c *Client) send(ctx context.Context, req *transport.Request, result any) error {
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.DecodeJSON(result)
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}
