package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsCreated        prometheus.Counter
	DocumentsUploaded    *prometheus.CounterVec
	ResultsRegistered    prometheus.Counter
	NewsPublished        prometheus.Counter
	NotificationsEmitted prometheus.Counter
	CacheLookups         *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New creates all application metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so suites can construct metrics independently.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedevents_events_created_total",
			Help: "Total number of events created",
		}),
		DocumentsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedevents_documents_uploaded_total",
			Help: "Student documents processed in upload batches, by outcome",
		}, []string{"outcome"}),
		ResultsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedevents_match_results_registered_total",
			Help: "Total number of match results registered",
		}),
		NewsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedevents_match_news_published_total",
			Help: "Total number of match result news items published",
		}),
		NotificationsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedevents_notifications_emitted_total",
			Help: "Total number of notifications appended to the ledger",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedevents_cache_lookups_total",
			Help: "Read-through cache lookups, by result",
		}, []string{"result"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fedevents_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveDocumentUpload records a single batch item outcome.
func (m *Metrics) ObserveDocumentUpload(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.DocumentsUploaded.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one HTTP request by route pattern and status class.
func (m *Metrics) ObserveRequest(route string, status int, seconds float64) {
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	m.RequestDuration.WithLabelValues(route, class).Observe(seconds)
}

// ObserveCacheLookup records a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
