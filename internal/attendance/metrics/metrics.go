package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attendance lifecycle.
type Metrics struct {
	// Generation runs by outcome: generated, skipped, resumed,
	// no_evidence, invalid_state, not_found, lock_held, error
	GenerationsTotal *prometheus.CounterVec

	// Full generation run latency
	GenerationLatency prometheus.Histogram

	// Attendance entries written across all runs
	EntriesWritten prometheus.Counter
}

// New creates a Metrics instance with all attendance metrics registered.
func New() *Metrics {
	return &Metrics{
		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_attendance_generations_total",
			Help: "Total attendance generation runs by outcome",
		}, []string{"outcome"}),

		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_attendance_generation_duration_seconds",
			Help:    "Duration of full attendance generation runs",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		EntriesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_attendance_entries_written_total",
			Help: "Total attendance entries persisted by generation runs",
		}),
	}
}

// IncrementGeneration records a generation run outcome.
func (m *Metrics) IncrementGeneration(outcome string) {
	if m != nil {
		m.GenerationsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveGenerationLatency records the duration of a generation run.
func (m *Metrics) ObserveGenerationLatency(d time.Duration) {
	if m != nil {
		m.GenerationLatency.Observe(d.Seconds())
	}
}

// AddEntriesWritten records how many entries a run persisted.
func (m *Metrics) AddEntriesWritten(n int) {
	if m != nil {
		m.EntriesWritten.Add(float64(n))
	}
}
