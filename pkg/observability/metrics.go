package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the usage-analytics collectors. One instance is wired
// through the handlers so tests can use private registries.
type Metrics struct {
	registry *prometheus.Registry

	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	generations   *prometheus.CounterVec
	generationDur prometheus.Histogram
	pdfExports    prometheus.Counter
}

// NewMetrics creates and registers the usage-analytics collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "registrations_total",
			Help:      "Self-registration attempts by outcome.",
		}, []string{"outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "generations_total",
			Help:      "Roadmap generations by outcome and session kind.",
		}, []string{"outcome", "session"}),
		generationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadmap",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of one generation call, including the model round trip.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		pdfExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadmap",
			Name:      "pdf_exports_total",
			Help:      "PDF downloads served.",
		}),
	}

	registry.MustRegister(m.logins, m.registrations, m.generations, m.generationDur, m.pdfExports)
	return m
}

// Handler returns the /metrics endpoint handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLogin records a login attempt
func (m *Metrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordRegistration records a registration attempt
func (m *Metrics) RecordRegistration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

// RecordGeneration records one generation cycle
func (m *Metrics) RecordGeneration(outcome string, guest bool, elapsed time.Duration) {
	session := "user"
	if guest {
		session = "guest"
	}
	m.generations.WithLabelValues(outcome, session).Inc()
	if outcome == "success" {
		m.generationDur.Observe(elapsed.Seconds())
	}
}

// RecordPDFExport records a served PDF download
func (m *Metrics) RecordPDFExport() {
	m.pdfExports.Inc()
}
