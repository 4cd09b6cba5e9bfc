package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitforge_http_requests_total",
			Help: "Number of handled HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitforge_http_request_duration_seconds",
			Help:    "Time taken to handle HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	TrainerApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitforge_trainer_applications_total",
			Help: "Trainer applications by outcome (submitted, approved, rejected)",
		},
		[]string{"outcome"},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitforge_webhook_events_total",
			Help: "Payment processor webhook events by type and result",
		},
		[]string{"type", "result"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests, HTTPDuration, TrainerApplications, WebhookEvents)
}
