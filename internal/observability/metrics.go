package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts coordinator operations.
type Metrics struct {
	Created            *prometheus.CounterVec
	Deleted            prometheus.Counter
	ValidationFailures prometheus.Counter
	AlignmentFaults    prometheus.Counter
	PersistFailures    prometheus.Counter
	Workouts           prometheus.Gauge
	Markers            prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapty",
			Name:      "workouts_created_total",
			Help:      "Workouts created, by type.",
		}, []string{"type"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapty",
			Name:      "workouts_deleted_total",
			Help:      "Workouts removed by delete or delete-all.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapty",
			Name:      "validation_failures_total",
			Help:      "Rejected workout submissions.",
		}),
		AlignmentFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapty",
			Name:      "alignment_faults_total",
			Help:      "Workouts and map markers found out of step.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapty",
			Name:      "persist_failures_total",
			Help:      "Snapshot writes that failed.",
		}),
		Workouts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapty",
			Name:      "workouts",
			Help:      "Workouts currently held.",
		}),
		Markers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapty",
			Name:      "markers",
			Help:      "Map markers currently placed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Created, m.Deleted, m.ValidationFailures, m.AlignmentFaults, m.PersistFailures, m.Workouts, m.Markers)
	}
	return m
}
