package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		httpRequestsTotal,
		callbacksTotal,
	)
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qris_http_requests_total",
			Help: "HTTP requests by route and status code class.",
		},
		[]string{"route", "code"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qris_callbacks_total",
			Help: "Provider callbacks by result (acked/duplicate/rejected/unknown).",
		},
		[]string{"result"},
	)
)

func IncHTTPRequest(route, code string) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}

func IncCallback(result string) {
	callbacksTotal.WithLabelValues(norm(result)).Inc()
}
