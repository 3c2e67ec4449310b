package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CheckoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout session requests by result.",
		},
		[]string{"result"},
	)

	CheckoutAmount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_amount",
			Help:    "Amounts of issued checkout sessions in the smallest currency unit.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 10),
		},
		[]string{"currency"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by result.",
		},
		[]string{"result"},
	)

	ReconcileOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_outcomes_total",
			Help: "Settlement outcomes of acknowledged webhook deliveries.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		CheckoutSessionsTotal,
		CheckoutAmount,
		WebhookEventsTotal,
		ReconcileOutcomesTotal,
	)
}
