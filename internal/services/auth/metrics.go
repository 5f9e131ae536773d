package auth

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts auth outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	resets        *prometheus.CounterVec
	mailFailures  prometheus.Counter
}

// NewMetrics builds unregistered collectors; register them with Collectors().
func NewMetrics() *Metrics {
	return &Metrics{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Users successfully registered",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_password_resets_total",
			Help: "Password reset flow events by stage",
		}, []string{"stage"}),
		mailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_reset_mail_failures_total",
			Help: "Reset emails the transport failed to deliver",
		}),
	}
}

// Collectors lists every collector so callers can register them.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.registrations, m.logins, m.resets, m.mailFailures}
}

func (m *Metrics) registered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// reset stages: requested, replaced, issued, completed.
func (m *Metrics) reset(stage string) {
	if m != nil {
		m.resets.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) mailFailed() {
	if m != nil {
		m.mailFailures.Inc()
	}
}
