package prometheus

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yammahtea/mediscan/pkg/metrics"
	"github.com/yammahtea/mediscan/pkg/session"
)

func TestNewSessionMetricsDisabled(t *testing.T) {
	metrics.Reset()

	assert.Nil(t, NewSessionMetrics())
	assert.Nil(t, metrics.NewSessionMetrics(), "disabled metrics yield a nil interface")

	// Nil receivers are safe.
	var m *sessionMetrics
	m.ObserveRefresh(session.OutcomeSuccess, time.Millisecond)
	m.RecordRetry(session.RetrySucceeded)
	m.SetRefreshWaiters(1)
}

func TestSessionMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewSessionMetrics()
	require.NotNil(t, m)

	m.ObserveRefresh(session.OutcomeSuccess, 20*time.Millisecond)
	m.ObserveRefresh(session.OutcomeSuccess, 30*time.Millisecond)
	m.ObserveRefresh(session.OutcomeFailed, 5*time.Millisecond)
	m.RecordRetry(session.RetrySucceeded)
	m.RecordRetry(session.RetryAbandoned)
	m.SetRefreshWaiters(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshes.WithLabelValues(session.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues(session.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues(session.RetrySucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues(session.RetryAbandoned)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.waiters))
	assert.Equal(t, 1, testutil.CollectAndCount(m.refreshDuration))
}

func TestSessionMetricsSharedRegistry(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	first := NewSessionMetrics()
	require.NotNil(t, first)

	var second *sessionMetrics
	require.NotPanics(t, func() { second = NewSessionMetrics() })
	require.NotNil(t, second)

	first.RecordRetry(session.RetrySucceeded)
	second.RecordRetry(session.RetrySucceeded)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.retries.WithLabelValues(session.RetrySucceeded)),
		"both instances feed the registered collector")
}

func TestRegisteredConstructor(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := metrics.NewSessionMetrics()
	require.NotNil(t, m)
	m.SetRefreshWaiters(2)

	path := filepath.Join(t.TempDir(), "mediscan.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mediscan_session_refresh_waiters 2")
}

func TestWriteTextfileDisabled(t *testing.T) {
	metrics.Reset()

	path := filepath.Join(t.TempDir(), "mediscan.prom")
	require.NoError(t, metrics.WriteTextfile(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
