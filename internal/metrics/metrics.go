package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus instruments for the service.
type Metrics struct {
	CheckIns            prometheus.Counter
	CheckOuts           prometheus.Counter
	Identifications     *prometheus.CounterVec
	IdentifyLatency     prometheus.Histogram
	NotificationsSent   *prometheus.CounterVec
	NotificationsQueued prometheus.Counter
}

// New registers and returns the service metrics.
func New(namespace string) *Metrics {
	return &Metrics{
		CheckIns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Attendance sessions opened",
		}),
		CheckOuts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Attendance sessions closed",
		}),
		Identifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifications_total",
			Help:      "Face identification attempts by outcome",
		}, []string{"outcome"}),
		IdentifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "identify_latency_seconds",
			Help:      "Latency of face identification calls",
			Buckets:   prometheus.DefBuckets,
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "WhatsApp notifications by delivery status",
		}, []string{"status"}),
		NotificationsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_queued_total",
			Help:      "Notification jobs published to the queue",
		}),
	}
}
