package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yammahtea/mediscan/pkg/transport"
)

func TestNew(t *testing.T) {
	client, err := New("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", client.BaseURL())
	assert.NotNil(t, client.Transport())

	_, err = New("localhost")
	assert.Error(t, err)
}

func TestNewWithTransportSharesHooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer shared", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL)
	require.NoError(t, err)
	tr.UseRequest(func(req *transport.Request) { req.SetBearer("shared") })

	client := NewWithTransport(tr)
	require.NoError(t, client.get(context.Background(), "/test", nil))
}

func TestDoWithSuccess(t *testing.T) {
	type Response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Response{Message: "success"})
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	var resp Response
	err = client.get(context.Background(), "/test", &resp)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Message)
}

func TestDoWithAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Forbidden"})
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.get(context.Background(), "/test", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Forbidden", apiErr.Message)
	assert.True(t, apiErr.IsAuthError())
}

func TestDoWithPost(t *testing.T) {
	type Request struct {
		Name string `json:"name"`
	}
	type Response struct {
		ID int `json:"id"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "test", req.Name)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Response{ID: 123})
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	var resp Response
	err = client.post(context.Background(), "/test", Request{Name: "test"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, 123, resp.ID)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}))
	assert.False(t, IsRateLimited(&APIError{StatusCode: http.StatusUnauthorized}))
	assert.False(t, IsRateLimited(nil))

	_, ok := AsAPIError(assert.AnError)
	assert.False(t, ok)
}
