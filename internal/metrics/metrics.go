// Package metrics owns the Prometheus registry and the collectors the service
// exports on /metrics. Every Observe method is safe on a nil *Metrics so
// packages can be constructed without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "furniture_taxi"

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	codeLookups   *prometheus.CounterVec
	events        *prometheus.CounterVec
	emails        *prometheus.CounterVec
	quotes        *prometheus.CounterVec
	leadsRejected prometheus.Counter
}

// New registers all collectors, plus the Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		codeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_lookups_total",
			Help:      "Discount/referral code resolutions by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_total",
			Help:      "Analytics events by kind and outcome (written, skipped, failed).",
		}, []string{"event", "outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Notification emails by recipient and outcome.",
		}, []string{"recipient", "outcome"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quote estimates by outcome (matched, minimum, error).",
		}, []string{"outcome"}),
		leadsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_rejected_total",
			Help:      "Form submissions rejected by validation.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.codeLookups,
		m.events,
		m.emails,
		m.quotes,
		m.leadsRejected,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveCodeLookup(result string) {
	if m == nil {
		return
	}
	m.codeLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) ObserveEmail(recipient, outcome string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(recipient, outcome).Inc()
}

func (m *Metrics) ObserveQuote(outcome string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLeadRejected() {
	if m == nil {
		return
	}
	m.leadsRejected.Inc()
}
