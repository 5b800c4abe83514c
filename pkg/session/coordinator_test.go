package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yammahtea/mediscan/internal/testutil/fakeapi"
	"github.com/yammahtea/mediscan/pkg/transport"
)

func TestExpiredTokenIsRefreshedAndRetried(t *testing.T) {
	h := newHarness(t)
	old := h.login(t)
	h.api.ExpireAccessTokens()

	resp, err := h.ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.Request.Retried)

	fresh := h.manager.Token()
	require.NotEmpty(t, fresh)
	assert.NotEqual(t, old, fresh)

	assert.Equal(t, 1, h.api.Calls(fakeapi.RefreshPath), "exactly one refresh")
	assert.Equal(t, 2, h.api.Calls(fakeapi.ProtectedPath), "exactly one retry")
	assert.Equal(t, []string{fakeapi.BearerOf(old), fakeapi.BearerOf(fresh)},
		h.api.Authorizations(fakeapi.ProtectedPath))

	assert.Equal(t, 1, h.metrics.refreshCount(OutcomeSuccess))
	assert.Equal(t, 1, h.metrics.retryCount(RetrySucceeded))
	assert.Zero(t, h.manager.Coordinator().Waiting())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	h := newHarness(t)
	old := h.login(t)
	h.api.ExpireAccessTokens()

	release := h.api.HoldRefresh()
	defer release()

	const n = 8
	start := make(chan struct{})
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.ping(context.Background())
		}(i)
	}

	close(start)
	h.waitForWaiters(t, n)
	release()
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}

	fresh := h.manager.Token()
	assert.NotEqual(t, old, fresh)
	assert.Equal(t, 1, h.api.Calls(fakeapi.RefreshPath))
	assert.Equal(t, 2*n, h.api.Calls(fakeapi.ProtectedPath))

	auths := h.api.Authorizations(fakeapi.ProtectedPath)
	require.Len(t, auths, 2*n)
	for _, a := range auths[:n] {
		assert.Equal(t, fakeapi.BearerOf(old), a)
	}
	for _, a := range auths[n:] {
		assert.Equal(t, fakeapi.BearerOf(fresh), a, "every retry uses the shared token")
	}

	assert.Equal(t, 1, h.metrics.refreshCount(OutcomeSuccess))
	assert.Equal(t, n, h.metrics.retryCount(RetrySucceeded))
	assert.Equal(t, n, h.metrics.peakWaiters())
}

func TestLateUnauthorizedReusesSettledRefresh(t *testing.T) {
	h := newHarness(t)
	old := h.login(t)
	h.api.ExpireAccessTokens()

	_, err := h.ping(context.Background())
	require.NoError(t, err)
	fresh := h.manager.Token()
	require.NotEqual(t, old, fresh)

	// A second call sent with the expired token gets its 401 after the
	// refresh above has already settled.
	late := transport.NewRequest(http.MethodGet, fakeapi.ProtectedPath, nil)
	late.SetBearer(old)
	unauthorized := &transport.StatusError{StatusCode: http.StatusUnauthorized, Target: fakeapi.ProtectedPath}

	resp, err := h.manager.Coordinator().Hook(context.Background(), late, nil, unauthorized)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, late.Retried)
	assert.Equal(t, fakeapi.BearerOf(fresh), late.Authorization())

	assert.Equal(t, 1, h.api.Calls(fakeapi.RefreshPath), "one refresh for one expiry")
	assert.Equal(t, fresh, h.manager.Token())
	assert.Equal(t, 1, h.metrics.refreshCount(OutcomeSuccess))
	assert.Equal(t, 2, h.metrics.retryCount(RetrySucceeded))
}

func TestFailedRefreshClearsSessionAndRejectsAllWaiters(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.ExpireAccessTokens()
	h.api.RevokeSessions()

	release := h.api.HoldRefresh()
	defer release()

	const n = 5
	start := make(chan struct{})
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.ping(context.Background())
		}(i)
	}

	close(start)
	h.waitForWaiters(t, n)
	release()
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)

		var se *transport.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, fakeapi.RefreshPath, se.Target, "caller sees the refresh error, not the original 401")
		assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	}

	assert.Empty(t, h.manager.Token())
	assert.Equal(t, 1, h.api.Calls(fakeapi.RefreshPath))
	assert.Equal(t, n, h.api.Calls(fakeapi.ProtectedPath), "nothing is retried")
	assert.Equal(t, 1, h.metrics.refreshCount(OutcomeFailed))
}

func TestRetriedRequestIsNotRecoveredAgain(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.Fail(fakeapi.ProtectedPath, http.StatusUnauthorized, "still unauthorized")

	_, err := h.ping(context.Background())
	require.Error(t, err)

	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, fakeapi.ProtectedPath, se.Target)
	assert.Equal(t, "still unauthorized", se.Message)

	assert.Equal(t, 1, h.api.Calls(fakeapi.RefreshPath))
	assert.Equal(t, 2, h.api.Calls(fakeapi.ProtectedPath))
	assert.NotEmpty(t, h.manager.Token(), "the refresh itself succeeded")
	assert.Equal(t, 1, h.metrics.retryCount(RetryFailed))
}

func TestRefreshEndpointUnauthorizedIsNotRecovered(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, transport.IsUnauthorized(err))
	assert.Equal(t, 1, h.api.Calls(fakeapi.RefreshPath), "no refresh of the refresh")
}

func TestLoginUnauthorizedIsNotRecovered(t *testing.T) {
	h := newHarness(t)

	err := h.manager.Login(context.Background(), fakeapi.DefaultUsername, "wrong-password")
	require.Error(t, err)
	assert.True(t, transport.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Incorrect username or password")
	assert.Zero(t, h.api.Calls(fakeapi.RefreshPath))
}

func TestNonAuthFailuresPassThrough(t *testing.T) {
	for _, status := range []int{
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
	} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			h := newHarness(t)
			token := h.login(t)
			h.api.Fail(fakeapi.ProtectedPath, status, "failure")

			_, err := h.ping(context.Background())
			require.Error(t, err)
			assert.Equal(t, status, transport.StatusCode(err))

			assert.Zero(t, h.api.Calls(fakeapi.RefreshPath))
			assert.Equal(t, 1, h.api.Calls(fakeapi.ProtectedPath))
			assert.Equal(t, token, h.manager.Token(), "session untouched")
		})
	}
}

func TestTransportTimeoutIsNotRetried(t *testing.T) {
	h := newHarnessWith(t, harnessConfig{
		opts: []transport.Option{transport.WithTimeout(100 * time.Millisecond)},
	})
	token := h.login(t)
	h.api.Delay(fakeapi.ProtectedPath, 2*time.Second)

	_, err := h.ping(context.Background())
	require.Error(t, err)
	assert.True(t, transport.IsTimeout(err))
	assert.Zero(t, transport.StatusCode(err))

	assert.Zero(t, h.api.Calls(fakeapi.RefreshPath))
	assert.Equal(t, token, h.manager.Token())
}

func TestAbandonedCallerLeavesStoreConsistent(t *testing.T) {
	h := newHarness(t)
	old := h.login(t)
	h.api.ExpireAccessTokens()

	release := h.api.HoldRefresh()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := h.ping(ctx)
		errCh <- err
	}()

	h.waitForWaiters(t, 1)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("abandoned caller did not return")
	}

	// The shared refresh keeps running and still updates the session.
	release()
	require.Eventually(t, func() bool {
		tok := h.manager.Token()
		return tok != "" && tok != old
	}, 5*time.Second, 5*time.Millisecond)
	assert.Zero(t, h.manager.Coordinator().Waiting())
	assert.Equal(t, 1, h.metrics.retryCount(RetryAbandoned))
}

func TestHookMarksRetriedBeforeRefresh(t *testing.T) {
	store := NewStore()
	store.SetToken("expired")

	var req *transport.Request
	refreshErr := errors.New("refresh unavailable")
	calls := 0
	c := NewCoordinator(store, nil, func(context.Context) (string, error) {
		calls++
		assert.True(t, req.Retried, "retry marker is set before the refresh call")
		return "", refreshErr
	}, CoordinatorConfig{})

	req = transport.NewRequest(http.MethodGet, "/ping", nil)
	unauthorized := &transport.StatusError{StatusCode: http.StatusUnauthorized, Target: "/ping"}

	_, err := c.Hook(context.Background(), req, nil, unauthorized)
	assert.ErrorIs(t, err, refreshErr)
	assert.True(t, req.Retried)
	assert.Empty(t, store.Token(), "failed refresh clears the session")

	// The same descriptor is no longer eligible.
	_, err = c.Hook(context.Background(), req, nil, unauthorized)
	assert.Same(t, unauthorized, err)
	assert.Equal(t, 1, calls)
}

func TestEmptyRefreshTokenIsAFailure(t *testing.T) {
	store := NewStore()
	store.SetToken("expired")

	c := NewCoordinator(store, nil, func(context.Context) (string, error) {
		return "", nil
	}, CoordinatorConfig{})

	req := transport.NewRequest(http.MethodGet, "/ping", nil)
	_, err := c.Hook(context.Background(), req, nil, &transport.StatusError{StatusCode: http.StatusUnauthorized})
	assert.ErrorIs(t, err, ErrEmptyToken)
	assert.Empty(t, store.Token())
}

func TestEligible(t *testing.T) {
	c := NewCoordinator(NewStore(), nil, nil, CoordinatorConfig{})
	unauthorized := &transport.StatusError{StatusCode: http.StatusUnauthorized}

	tests := []struct {
		name    string
		target  string
		retried bool
		err     error
		want    bool
	}{
		{name: "401 on feature call", target: "/profile/me", err: unauthorized, want: true},
		{name: "401 with query string", target: "/profile/me?x=1", err: unauthorized, want: true},
		{name: "success", target: "/profile/me", err: nil, want: false},
		{name: "already retried", target: "/profile/me", retried: true, err: unauthorized, want: false},
		{name: "refresh endpoint", target: DefaultRefreshPath, err: unauthorized, want: false},
		{name: "login endpoint", target: DefaultLoginPath, err: unauthorized, want: false},
		{name: "403", target: "/profile/me", err: &transport.StatusError{StatusCode: http.StatusForbidden}, want: false},
		{name: "network error", target: "/profile/me", err: &transport.Error{Op: "GET", Target: "/profile/me", Err: errors.New("refused")}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := transport.NewRequest(http.MethodGet, tt.target, nil)
			req.Retried = tt.retried
			assert.Equal(t, tt.want, c.Eligible(req, tt.err))
		})
	}
}
