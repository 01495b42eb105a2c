package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsCreatedTotal,
		sessionsReconciledTotal,
		sessionsExpiredTotal,
		sessionsRevenueTotal,
	)
}

var (
	sessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qris_sessions_created_total",
			Help: "Payment sessions created (QR issued and stored as PENDING).",
		},
	)

	sessionsReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qris_sessions_reconciled_total",
			Help: "Reconcile outcomes by terminal status and whether the write applied.",
		},
		[]string{"status", "applied"},
	)

	sessionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qris_sessions_expired_total",
			Help: "Sessions flipped to EXPIRED by the sweeper.",
		},
	)

	sessionsRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qris_sessions_revenue_idr_total",
			Help: "Total IDR value of sessions reconciled to COMPLETED.",
		},
	)
)

func IncSessionCreated() {
	sessionsCreatedTotal.Inc()
}

func IncSessionReconciled(status string, applied bool) {
	a := "false"
	if applied {
		a = "true"
	}
	sessionsReconciledTotal.WithLabelValues(norm(status), a).Inc()
}

func IncSessionsExpired(n int) {
	sessionsExpiredTotal.Add(float64(n))
}

func AddSessionRevenue(amount int64) {
	sessionsRevenueTotal.Add(float64(amount))
}
