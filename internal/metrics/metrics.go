// Package metrics exposes Prometheus counters for upstream calls and the
// inbound API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for upstream calls.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status_error"
	OutcomeTransport = "transport_error"
	OutcomeParse     = "parse_error"
)

type Metrics struct {
	registry         *prometheus.Registry
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamRows     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerdash",
			Name:      "upstream_calls_total",
			Help:      "KEPCO API calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "powerdash",
			Name:      "upstream_call_duration_seconds",
			Help:      "KEPCO API call latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"operation"}),
		upstreamRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerdash",
			Name:      "upstream_rows_total",
			Help:      "Canonical rows produced from KEPCO responses.",
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powerdash",
			Name:      "http_requests_total",
			Help:      "Inbound API requests by route and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "powerdash",
			Name:      "http_request_duration_seconds",
			Help:      "Inbound API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamCalls,
		m.upstreamDuration,
		m.upstreamRows,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveCall records one upstream call. rows is ignored unless outcome is OutcomeOK.
func (m *Metrics) ObserveCall(operation, outcome string, rows int, d time.Duration) {
	m.upstreamCalls.WithLabelValues(operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
	if outcome == OutcomeOK {
		m.upstreamRows.WithLabelValues(operation).Add(float64(rows))
	}
}

func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
