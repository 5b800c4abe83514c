// Package prometheus implements the client's metrics interfaces with
// Prometheus collectors. Import it for its side effect of registering the
// constructors used by pkg/metrics.
package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yammahtea/mediscan/pkg/metrics"
	"github.com/yammahtea/mediscan/pkg/session"
)

func init() {
	metrics.RegisterSessionMetricsConstructor(func() session.Metrics {
		if m := NewSessionMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// sessionMetrics is the Prometheus implementation of session.Metrics.
type sessionMetrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	retries         *prometheus.CounterVec
	waiters         prometheus.Gauge
}

// NewSessionMetrics creates a new Prometheus-backed session metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). Calling
// it again on the same registry returns instruments backed by the collectors
// registered first.
func NewSessionMetrics() *sessionMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &sessionMetrics{
		refreshes: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediscan_session_refresh_total",
				Help: "Total number of silent token refreshes by outcome",
			},
			[]string{"outcome"}, // "success", "failed"
		)),
		refreshDuration: register(reg, prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "mediscan_session_refresh_duration_milliseconds",
				Help: "Duration of silent token refreshes in milliseconds",
				Buckets: []float64{
					5,    // 5ms - local servers
					10,   // 10ms
					25,   // 25ms
					50,   // 50ms
					100,  // 100ms
					250,  // 250ms
					500,  // 500ms
					1000, // 1s
					5000, // 5s - slow or overloaded servers
				},
			},
		)),
		retries: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediscan_session_retries_total",
				Help: "Total number of requests re-issued after a refresh by result",
			},
			[]string{"result"}, // "succeeded", "failed", "abandoned"
		)),
		waiters: register(reg, prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mediscan_session_refresh_waiters",
				Help: "Number of requests waiting for the outstanding refresh",
			},
		)),
	}
}

// ObserveRefresh records one settled refresh attempt.
func (m *sessionMetrics) ObserveRefresh(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(float64(duration.Microseconds()) / 1000.0)
}

// RecordRetry records the result of re-issuing a request.
func (m *sessionMetrics) RecordRetry(result string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(result).Inc()
}

// SetRefreshWaiters records the number of calls awaiting a refresh.
func (m *sessionMetrics) SetRefreshWaiters(n int) {
	if m == nil {
		return
	}
	m.waiters.Set(float64(n))
}

// register adds c to reg. A collector that is already registered is reused.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
