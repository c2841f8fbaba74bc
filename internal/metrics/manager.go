// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aitrainer"

// Outcome labels for AI calls.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

type Manager struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterPanics        prometheus.Counter
	CounterAICalls       *prometheus.CounterVec
	CounterInsightsSaved prometheus.Counter

	// gauges
	GaugeInFlight prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
	HistAICallDuration  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewManager registers the collectors in a fresh registry, together with the Go runtime and process collectors.
func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return newManager(reg, reg)
}

// NewTestManager returns a manager whose registry holds only the service's own collectors.
func NewTestManager() *Manager {
	reg := prometheus.NewRegistry()
	return newManager(reg, reg)
}

func newManager(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "The total number of handled requests.",
		}, []string{"method", "route", "status"}),
		CounterPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "The total number of recovered handler panics.",
		}),
		CounterAICalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "The total number of LLM completion calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CounterInsightsSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coaching",
			Name:      "insights_saved_total",
			Help:      "The total number of persisted training insights.",
		}),
		GaugeInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of handled requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		HistAICallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM completion calls in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"kind"}),
		gatherer: gatherer,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
