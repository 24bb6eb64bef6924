// Package metrics exposes Prometheus counters for workflow outcomes and
// best-effort side effects.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maillist"

type Metrics struct {
	registry         *prometheus.Registry
	outcomes         *prometheus.CounterVec
	mirrorFailures   *prometheus.CounterVec
	notifierFailures prometheus.Counter
}

// New registers the counters on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_outcomes_total",
			Help:      "Workflow results by operation and outcome.",
		}, []string{"operation", "outcome"}),
		mirrorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_failures_total",
			Help:      "Failed CSV mirror updates by operation.",
		}, []string{"operation"}),
		notifierFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_failures_total",
			Help:      "Verification emails that could not be delivered.",
		}),
	}

	m.registry.MustRegister(
		m.outcomes,
		m.mirrorFailures,
		m.notifierFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveOutcome(operation, outcome string) {
	m.outcomes.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveMirrorFailure(operation string) {
	m.mirrorFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveNotifierFailure() {
	m.notifierFailures.Inc()
}

// Handler serves the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
