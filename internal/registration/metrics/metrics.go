package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for registration attempts.
const (
	OutcomeCreated             = "created"
	OutcomeDuplicateEmail      = "duplicate_email"
	OutcomeDuplicatePreference = "duplicate_preference"
	OutcomeFailed              = "failed"
)

// Metrics holds Prometheus collectors for registrations.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registrations *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	RegisterTime  prometheus.Histogram
}

// New registers and returns registration metrics collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "confsite_registration_notifications_total",
			Help: "Best-effort registration side effects by channel (webhook, email) and result (sent, failed)",
		}, []string{"channel", "result"}),
		RegisterTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "confsite_registration_duration_seconds",
			Help:    "Time to persist a registration and dispatch its notifications",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncNotification(channel string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) ObserveRegisterDuration(seconds float64) {
	if m == nil {
		return
	}
	m.RegisterTime.Observe(seconds)
}
