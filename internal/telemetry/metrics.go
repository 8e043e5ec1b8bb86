// Package telemetry wires Machine dispatch into Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethan/exm"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_transitions_total",
		Help: "Total number of transitions taken, by event and target state",
	}, []string{"event", "target"})

	macrostepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exm_macrostep_duration_seconds",
		Help:    "Duration of one Dispatch call, run-to-completion",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	unhandledEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_unhandled_events_total",
		Help: "Total number of Dispatch calls for which no transition fired",
	}, []string{"event"})
)

// ObservedDispatch wraps exm.Dispatch with Prometheus instrumentation,
// grounded on the same transitions-total/duration pairing the teacher
// pack's statemachine package uses for its own dispatch loop.
func ObservedDispatch(m *exm.Machine, event exm.Event) (*exm.Machine, error) {
	start := time.Now()
	next, err := exm.Dispatch(m, event)
	macrostepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return next, err
	}

	transitions := next.LastTransitions()
	if len(transitions) == 0 {
		unhandledEventsTotal.WithLabelValues(event.Name).Inc()
		return next, nil
	}
	for _, t := range transitions {
		transitionsTotal.WithLabelValues(t.Name, t.Target).Inc()
	}
	return next, nil
}
