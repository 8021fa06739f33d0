package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one run on a dedicated registry.
// All increment methods are nil-safe so instrumentation can stay optional.
type Metrics struct {
	Registry         *prometheus.Registry
	FetchesTotal     *prometheus.CounterVec
	FetchErrorsTotal prometheus.Counter
	SkippedTotal     prometheus.Counter
	PackagedTotal    prometheus.Counter
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jw2epub_fetches_total",
			Help: "Total page fetches by source.",
		},
		[]string{"source"},
	)
	fetchErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jw2epub_fetch_errors_total",
			Help: "Total fetches that failed at the transport level.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jw2epub_articles_skipped_total",
			Help: "Total article links skipped by the content policy.",
		},
	)
	packaged := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jw2epub_articles_packaged_total",
			Help: "Total articles written into the package.",
		},
	)

	registry.MustRegister(fetches, fetchErrors, skipped, packaged)

	return &Metrics{
		Registry:         registry,
		FetchesTotal:     fetches,
		FetchErrorsTotal: fetchErrors,
		SkippedTotal:     skipped,
		PackagedTotal:    packaged,
	}
}

// IncFetch counts one fetch served from the given source
// ("network", "cache", or "memo").
func (m *Metrics) IncFetch(source string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(source).Inc()
}

// IncFetchError counts one transport-level fetch failure.
func (m *Metrics) IncFetchError() {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.Inc()
}

// IncSkipped counts one article omitted by the content policy.
func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.SkippedTotal.Inc()
}

// AddPackaged counts articles written into the final package.
func (m *Metrics) AddPackaged(n int) {
	if m == nil {
		return
	}
	m.PackagedTotal.Add(float64(n))
}
