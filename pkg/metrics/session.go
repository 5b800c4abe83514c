package metrics

import (
	"github.com/yammahtea/mediscan/pkg/session"
)

// NewSessionMetrics creates a Prometheus-backed session.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or no
// implementation has been registered. A nil value passed to the session
// manager disables collection.
//
// Example usage:
//
//	metrics.InitRegistry()
//	mgr := session.NewManager(t, client, session.Options{
//		Metrics: metrics.NewSessionMetrics(),
//	})
func NewSessionMetrics() session.Metrics {
	if !IsEnabled() || newPrometheusSessionMetrics == nil {
		return nil
	}
	return newPrometheusSessionMetrics()
}

// newPrometheusSessionMetrics is implemented in pkg/metrics/prometheus/session.go.
// This indirection avoids import cycles while keeping the API clean.
var newPrometheusSessionMetrics func() session.Metrics

// RegisterSessionMetricsConstructor registers the Prometheus session metrics constructor.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterSessionMetricsConstructor(constructor func() session.Metrics) {
	newPrometheusSessionMetrics = constructor
}
