package application

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts lifecycle outcomes that matter operationally.
type Metrics struct {
	signups       *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alumni",
			Subsystem: "accounts",
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alumni",
			Subsystem: "accounts",
			Name:      "signup_compensations_total",
			Help:      "Accounts removed after the verification mail could not be delivered.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.signups, m.compensations)
	}
	return m
}

func (m *Metrics) signup(outcome string) {
	if m != nil {
		m.signups.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) compensation(result string) {
	if m != nil {
		m.compensations.WithLabelValues(result).Inc()
	}
}
