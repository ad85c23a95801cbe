package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrations_created_total",
		Help: "Total number of registrations created",
	}, []string{"path"}) // path: free / approval

	RegistrationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrations_failed_total",
		Help: "Total number of failed registration attempts",
	}, []string{"reason"})

	RegistrationsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrations_cancelled_total",
		Help: "Total number of cancelled registrations",
	})

	PaymentsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_approved_total",
		Help: "Total number of approved payments",
	})

	PaymentsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "Total number of rejected payments",
	})

	CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkins_total",
		Help: "Total number of attendance check-ins",
	}, []string{"method"})

	QRIssueFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_issue_failed_total",
		Help: "Total number of QR payload generation failures",
	})

	NotificationPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_publish_failed_total",
		Help: "Total number of notifications that could not be queued",
	})

	NotificationDispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_dispatch_latency_seconds",
		Help:    "Latency of notification dispatch attempts",
		Buckets: prometheus.DefBuckets,
	})
)
