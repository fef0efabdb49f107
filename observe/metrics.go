// Package observe holds the prometheus instrumentation. All methods
// are nil-safe so wiring metrics stays optional in tests.
package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mssentry"

type Metrics struct {
	operationsTotal    *prometheus.CounterVec
	compensationsTotal *prometheus.CounterVec
	auditWriteFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Orchestrated operations by resource, kind and terminal status.",
		}, []string{"resource", "kind", "status"}),
		compensationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compensations_total",
			Help:      "Saga unwinds by resource and outcome (clean or partial).",
		}, []string{"resource", "outcome"}),
		auditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit Begin/Complete calls that returned an error.",
		}),
	}
}

func (m *Metrics) Operation(resource, kind, status string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(resource, kind, status).Inc()
}

func (m *Metrics) Compensation(resource string, clean bool) {
	if m == nil {
		return
	}
	outcome := "clean"
	if !clean {
		outcome = "partial"
	}
	m.compensationsTotal.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) AuditWriteFailure() {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc()
}
