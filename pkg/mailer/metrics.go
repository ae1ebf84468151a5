package mailer

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts delivery attempts by purpose and outcome.
type Metrics struct {
	attempts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alumni",
			Subsystem: "mail",
			Name:      "dispatch_attempts_total",
			Help:      "Mail delivery attempts by template and outcome.",
		}, []string{"purpose", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts)
	}
	return m
}

func (m *Metrics) observe(purpose Purpose, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(string(purpose), outcome).Inc()
}
