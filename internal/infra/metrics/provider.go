package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		providerCallsTotal,
		providerCallLatencyMs,
	)
}

var (
	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qris_provider_calls_total",
			Help: "Outbound provider calls by operation and outcome (ok/unavailable/malformed).",
		},
		[]string{"op", "outcome"},
	)

	providerCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qris_provider_call_latency_ms",
			Help:    "Provider call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"op"},
	)
)

func ObserveProviderCall(op, outcome string, latencyMs int64) {
	providerCallsTotal.WithLabelValues(norm(op), norm(outcome)).Inc()
	providerCallLatencyMs.WithLabelValues(norm(op)).Observe(float64(latencyMs))
}
