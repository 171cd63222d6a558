package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Upstream menu resource
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// View and owner flows
	ListLoadsTotal  *prometheus.CounterVec
	MutationsTotal  *prometheus.CounterVec
	ChallengesTotal *prometheus.CounterVec

	// Live refresh
	LiveClients         prometheus.Gauge
	LiveEventsPublished *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "menuboard_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "menuboard_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "menuboard_http_response_size_bytes",
					Help:    "HTTP response body size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "menuboard_http_active_connections",
					Help: "Requests currently being served",
				},
				[]string{"method", "path"},
			),
			UpstreamRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "menuboard_upstream_requests_total",
					Help: "Requests sent to the menu resource",
				},
				[]string{"op", "status"},
			),
			UpstreamRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "menuboard_upstream_request_duration_seconds",
					Help:    "Menu resource latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"op"},
			),
			ListLoadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "menuboard_list_loads_total",
					Help: "Menu list fetch attempts by outcome",
				},
				[]string{"surface", "outcome"},
			),
			MutationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "menuboard_mutations_total",
					Help: "Owner mutations by operation and outcome",
				},
				[]string{"op", "outcome"},
			),
			ChallengesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "menuboard_authz_challenges_total",
					Help: "Secret challenges by outcome",
				},
				[]string{"outcome"},
			),
			LiveClients: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "menuboard_live_clients",
					Help: "Connected live-refresh websocket clients",
				},
			),
			LiveEventsPublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "menuboard_live_events_published_total",
					Help: "Live-refresh events published",
				},
				[]string{"type"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Initialize()
}

// ObserveUpstream records one menu resource call. It matches
// menu.ObserveFunc so it can be handed straight to the client.
func ObserveUpstream(op string, status int, elapsed time.Duration) {
	m := Get()
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequestsTotal.WithLabelValues(op, label).Inc()
	m.UpstreamRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordListLoad counts a finished list fetch for surface (web, tui, cli).
func RecordListLoad(surface string, err error) {
	Get().ListLoadsTotal.WithLabelValues(surface, outcome(err)).Inc()
}

// RecordMutation counts a finished create, update or delete.
func RecordMutation(op string, err error) {
	Get().MutationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// RecordChallenge counts a secret challenge as granted, declined or failed.
func RecordChallenge(result string) {
	Get().ChallengesTotal.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
