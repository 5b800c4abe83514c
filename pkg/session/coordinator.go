package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yammahtea/mediscan/internal/logger"
	"github.com/yammahtea/mediscan/internal/telemetry"
	"github.com/yammahtea/mediscan/pkg/transport"
)

// Default session endpoints.
const (
	// DefaultRefreshPath mints a new access token from the server-held
	// refresh credential.
	DefaultRefreshPath = "/refresh"

	// DefaultLoginPath exchanges credentials for an access token. A 401 there
	// means bad credentials and login errors reach the caller verbatim, so it
	// is never recovered.
	DefaultLoginPath = "/login"
)

// ErrEmptyToken is returned when a login or refresh succeeds without an access token.
var ErrEmptyToken = errors.New("server returned an empty access token")

// Refresh outcomes reported to Metrics and traces.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Retry results reported to Metrics.
const (
	RetrySucceeded = "succeeded"
	RetryFailed    = "failed"
	RetryAbandoned = "abandoned"
)

// RefreshFunc exchanges the refresh credential for a new access token.
type RefreshFunc func(ctx context.Context) (string, error)

// Metrics records refresh coordination. A nil Metrics disables collection.
type Metrics interface {
	// ObserveRefresh records one settled refresh attempt.
	ObserveRefresh(outcome string, duration time.Duration)

	// RecordRetry records the result of re-issuing a request after a refresh.
	RecordRetry(result string)

	// SetRefreshWaiters records how many calls await the outstanding refresh.
	SetRefreshWaiters(n int)
}

const refreshKey = "refresh"

// Coordinator recovers requests that failed with 401 by refreshing the access
// token once and re-issuing them.
//
// Refresh is single-flight: every eligible failure observed while a refresh
// is outstanding waits for that same attempt and replays with its result.
type Coordinator struct {
	store       *Store
	transport   *transport.Transport
	refresh     RefreshFunc
	refreshPath string
	loginPath   string
	metrics     Metrics

	group   singleflight.Group
	waiting atomic.Int64
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	RefreshPath string // defaults to DefaultRefreshPath
	LoginPath   string // defaults to DefaultLoginPath
	Metrics     Metrics
}

// NewCoordinator creates a Coordinator that re-issues requests through t.
func NewCoordinator(store *Store, t *transport.Transport, refresh RefreshFunc, cfg CoordinatorConfig) *Coordinator {
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	return &Coordinator{
		store:       store,
		transport:   t,
		refresh:     refresh,
		refreshPath: cfg.RefreshPath,
		loginPath:   cfg.LoginPath,
		metrics:     cfg.Metrics,
	}
}

// Waiting returns the number of calls currently awaiting a refresh.
func (c *Coordinator) Waiting() int {
	return int(c.waiting.Load())
}

// Eligible reports whether a failed call may be recovered by a refresh: a
// 401 on a request that was not retried yet and is not a session endpoint.
func (c *Coordinator) Eligible(req *transport.Request, err error) bool {
	if err == nil || !transport.IsUnauthorized(err) || req.Retried {
		return false
	}
	path := req.Path()
	return path != c.refreshPath && path != c.loginPath
}

// Hook is the transport.ResponseHook.
//
// Failures that are not recoverable pass through unchanged. A recoverable
// failure resolves to the outcome of the re-issued request, or to the
// refresh error when the refresh fails.
func (c *Coordinator) Hook(ctx context.Context, req *transport.Request, resp *transport.Response, err error) (*transport.Response, error) {
	if !c.Eligible(req, err) {
		return resp, err
	}

	// Set before the refresh so a failed refresh cannot leave the request
	// eligible for another attempt.
	req.Retried = true

	// A 401 for a token that was already replaced belongs to a refresh that
	// has settled; replay with its result instead of refreshing again.
	token := c.store.Token()
	if sent := req.Bearer(); sent == "" || token == "" || token == sent {
		var rerr error
		if token, rerr = c.await(ctx); rerr != nil {
			return nil, rerr
		}
	} else {
		logger.DebugCtx(ctx, "replaying with settled token",
			logger.KeyRequestID, req.ID,
			logger.KeyTarget, req.Target)
	}

	req.SetBearer(token)
	resp, err = c.transport.Do(ctx, req)
	c.recordRetry(err)
	return resp, err
}

// await joins the outstanding refresh, starting one if none is in flight.
func (c *Coordinator) await(ctx context.Context) (string, error) {
	c.addWaiter(1)
	defer c.addWaiter(-1)

	// The shared attempt must not die with whichever caller started it.
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.run(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		c.recordRetryResult(RetryAbandoned)
		return "", ctx.Err()
	}
}

// run performs one refresh and applies its outcome to the store.
func (c *Coordinator) run(ctx context.Context) (string, error) {
	ctx, span := telemetry.StartSessionSpan(ctx, telemetry.SpanSessionRefresh)
	defer span.End()

	start := time.Now()
	token, err := c.refresh(ctx)
	if err == nil && token == "" {
		err = ErrEmptyToken
	}

	if err != nil {
		c.store.Clear()
		c.observe(OutcomeFailed, time.Since(start))
		span.SetAttributes(telemetry.RefreshOutcome(OutcomeFailed))
		telemetry.RecordError(ctx, err)
		logger.DebugCtx(ctx, "session refresh failed",
			logger.KeyError, err,
			logger.KeyWaiters, c.Waiting())
		return "", err
	}

	c.store.SetToken(token)
	c.observe(OutcomeSuccess, time.Since(start))
	span.SetAttributes(telemetry.RefreshOutcome(OutcomeSuccess))
	logger.DebugCtx(ctx, "session refreshed",
		logger.KeyWaiters, c.Waiting(),
		logger.KeyDurationMs, logger.Duration(start))
	return token, nil
}

func (c *Coordinator) addWaiter(delta int64) {
	n := c.waiting.Add(delta)
	if c.metrics != nil {
		c.metrics.SetRefreshWaiters(int(n))
	}
}

func (c *Coordinator) observe(outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveRefresh(outcome, d)
	}
}

func (c *Coordinator) recordRetry(err error) {
	if err != nil {
		c.recordRetryResult(RetryFailed)
		return
	}
	c.recordRetryResult(RetrySucceeded)
}

func (c *Coordinator) recordRetryResult(result string) {
	if c.metrics != nil {
		c.metrics.RecordRetry(result)
	}
}
