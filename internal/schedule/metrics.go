package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors registered for one orchestrator
// instance, mirroring the teacher's pattern of a small, explicit collector
// set registered per subsystem rather than a process-wide exporter.
type Metrics struct {
	OrchestrationsTotal    *prometheus.CounterVec
	OrchestrationDuration  *prometheus.HistogramVec
	CycleRejections        prometheus.Counter
}

// NewMetrics constructs and registers a Metrics set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrchestrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "schedule",
			Name:      "orchestrations_total",
			Help:      "Number of orchestration runs, labeled by outcome.",
		}, []string{"outcome"}),
		OrchestrationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskflow",
			Subsystem: "schedule",
			Name:      "orchestration_duration_seconds",
			Help:      "Orchestration wall-clock duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
		CycleRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskflow",
			Subsystem: "schedule",
			Name:      "cycle_rejections_total",
			Help:      "Number of orchestration runs rejected for a cyclic dependency graph.",
		}),
	}
	reg.MustRegister(m.OrchestrationsTotal, m.OrchestrationDuration, m.CycleRejections)
	return m
}
