package session

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"

	"github.com/yammahtea/mediscan/internal/testutil/fakeapi"
	"github.com/yammahtea/mediscan/pkg/apiclient"
	"github.com/yammahtea/mediscan/pkg/transport"
)

// harness wires a Manager to a fake API through a real transport.
type harness struct {
	api       *fakeapi.Server
	jar       http.CookieJar
	transport *transport.Transport
	client    *apiclient.Client
	manager   *Manager
	metrics   *recordingMetrics
}

type harnessConfig struct {
	api   *fakeapi.Server
	jar   http.CookieJar
	store *Store
	opts  []transport.Option
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, harnessConfig{})
}

func newHarnessWith(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	if cfg.api == nil {
		cfg.api = fakeapi.New()
		t.Cleanup(cfg.api.Close)
	}
	if cfg.jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		require.NoError(t, err)
		cfg.jar = jar
	}

	opts := append([]transport.Option{transport.WithCookieJar(cfg.jar)}, cfg.opts...)
	tr, err := transport.New(cfg.api.URL, opts...)
	require.NoError(t, err)

	client := apiclient.NewWithTransport(tr)
	metrics := &recordingMetrics{}
	mgr := NewManager(tr, client, Options{Metrics: metrics, Store: cfg.store})
	mgr.Start()
	t.Cleanup(func() { _ = mgr.Close() })

	return &harness{
		api:       cfg.api,
		jar:       cfg.jar,
		transport: tr,
		client:    client,
		manager:   mgr,
		metrics:   metrics,
	}
}

func (h *harness) login(t *testing.T) string {
	t.Helper()
	require.NoError(t, h.manager.Login(context.Background(), fakeapi.DefaultUsername, fakeapi.DefaultPassword))
	token := h.manager.Token()
	require.NotEmpty(t, token)
	return token
}

func (h *harness) ping(ctx context.Context) (*transport.Response, error) {
	return h.transport.Do(ctx, transport.NewRequest(http.MethodGet, fakeapi.ProtectedPath, nil))
}

// waitForWaiters blocks until n calls await the outstanding refresh.
func (h *harness) waitForWaiters(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.manager.Coordinator().Waiting() == n
	}, 5*time.Second, 5*time.Millisecond, "expected %d refresh waiters", n)
}

// recordingMetrics is an in-memory Metrics.
type recordingMetrics struct {
	mu         sync.Mutex
	refreshes  map[string]int
	retries    map[string]int
	maxWaiters int
}

func (m *recordingMetrics) ObserveRefresh(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshes == nil {
		m.refreshes = make(map[string]int)
	}
	m.refreshes[outcome]++
}

func (m *recordingMetrics) RecordRetry(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.retries == nil {
		m.retries = make(map[string]int)
	}
	m.retries[result]++
}

func (m *recordingMetrics) SetRefreshWaiters(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > m.maxWaiters {
		m.maxWaiters = n
	}
}

func (m *recordingMetrics) refreshCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes[outcome]
}

func (m *recordingMetrics) retryCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retries[result]
}

func (m *recordingMetrics) peakWaiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxWaiters
}
