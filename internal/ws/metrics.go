package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts realtime traffic. A nil *Metrics records nothing.
type Metrics struct {
	framesReceived        *prometheus.CounterVec
	framesDropped         *prometheus.CounterVec
	notificationsAppended prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "skillconnect",
				Subsystem: "ws",
				Name:      "frames_received_total",
				Help:      "Frames read from realtime channels.",
			},
			[]string{"channel"},
		),
		framesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "skillconnect",
				Subsystem: "ws",
				Name:      "frames_dropped_total",
				Help:      "Frames ignored because they were malformed or of an unknown kind.",
			},
			[]string{"channel", "reason"},
		),
		notificationsAppended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "skillconnect",
				Subsystem: "ws",
				Name:      "notifications_appended_total",
				Help:      "Notifications added to the feed.",
			},
		),
	}
	reg.MustRegister(m.framesReceived, m.framesDropped, m.notificationsAppended)
	return m
}

func (m *Metrics) received(channel string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(channel).Inc()
}

func (m *Metrics) dropped(channel, reason string) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(channel, reason).Inc()
}

func (m *Metrics) appended() {
	if m == nil {
		return
	}
	m.notificationsAppended.Inc()
}
