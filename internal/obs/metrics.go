package obs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client-side HTTP metrics. The CLI does not serve these; embedding programs
// register them into their own scrape surface via Register.
var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_client_requests_total",
			Help: "Total panel API requests issued by this client.",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panel_client_request_duration_seconds",
			Help:    "Panel API request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panel_client_token_refresh_total",
			Help: "Token refresh attempts by outcome.",
		},
		[]string{"result"},
	)
)

// Register adds the client metrics to reg. Call once per registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(requestsTotal, requestDuration, refreshTotal)
}

// ObserveRequest records one completed request. A zero status means the
// request failed before a response arrived.
func ObserveRequest(method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(method, code).Inc()
	requestDuration.WithLabelValues(method, code).Observe(elapsed.Seconds())
}

// ObserveRefresh records one token refresh outcome ("success" or "failure").
func ObserveRefresh(result string) {
	refreshTotal.WithLabelValues(result).Inc()
}
