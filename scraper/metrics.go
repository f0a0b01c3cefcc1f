package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the survey scraper.
type Metrics struct {
	Registry               *prometheus.Registry
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        prometheus.Histogram
	PagesTotal             *prometheus.CounterVec
	ListingsExtractedTotal prometheus.Counter
	ListingsFilteredTotal  prometheus.Counter
	CardsSkippedTotal      prometheus.Counter
	ErrorsTotal            *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olx_requests_total",
			Help: "Page requests by phase (started, cache_hit).",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "olx_request_duration_seconds",
			Help:    "HTTP latency for search page requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olx_pages_total",
			Help: "Search pages processed by outcome.",
		},
		[]string{"outcome"},
	)
	extracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "olx_listings_extracted_total",
			Help: "Listings accepted into a scrape result.",
		},
	)
	filtered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "olx_listings_filtered_total",
			Help: "Listings dropped by the price filter.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "olx_cards_skipped_total",
			Help: "Listing cards without a usable price or link.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "olx_errors_total",
			Help: "Fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pages, extracted, filtered, skipped, errorsTotal)

	return &Metrics{
		Registry:               registry,
		RequestsTotal:          requests,
		RequestDuration:        requestDuration,
		PagesTotal:             pages,
		ListingsExtractedTotal: extracted,
		ListingsFilteredTotal:  filtered,
		CardsSkippedTotal:      skipped,
		ErrorsTotal:            errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPage counts a processed page under outcome.
func (m *Metrics) IncPage(outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
}

// AddPageStats folds one page's extraction counts into the counters.
func (m *Metrics) AddPageStats(accepted int, stats PageStats) {
	if m == nil {
		return
	}
	m.ListingsExtractedTotal.Add(float64(accepted))
	m.ListingsFilteredTotal.Add(float64(stats.Filtered))
	m.CardsSkippedTotal.Add(float64(stats.Skipped))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
