package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK         = "ok"
	outcomeSuppressed = "suppressed"
)

// Metrics counts gateway operations by outcome. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ops *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog_gateway",
			Name:      "operations_total",
			Help:      "Gateway operations by outcome; suppressed means an upstream failure was downgraded to an empty value.",
		}, []string{"operation", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.ops)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeSuppressed
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}
