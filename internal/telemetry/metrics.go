// Package telemetry exposes Prometheus instrumentation for the workflow
// engine's callers.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors tracked across event processing
type Metrics struct {
	TransitionsTotal *prometheus.CounterVec
	RuleTriggers     *prometheus.CounterVec
	ActionsEmitted   prometheus.Counter
	DispatchFailures prometheus.Counter
}

// New creates the workflow collectors and registers them on the given
// registerer
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow events processed, by event type and outcome.",
		}, []string{"event", "outcome"}),
		RuleTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "workflow",
			Name:      "rule_triggers_total",
			Help:      "Automation rules matched during event processing.",
		}, []string{"rule"}),
		ActionsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "workflow",
			Name:      "actions_emitted_total",
			Help:      "Action descriptors returned by the engine.",
		}),
		DispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskhive",
			Subsystem: "workflow",
			Name:      "dispatch_failures_total",
			Help:      "Action batches that failed during dispatch.",
		}),
	}

	reg.MustRegister(m.TransitionsTotal, m.RuleTriggers, m.ActionsEmitted, m.DispatchFailures)
	return m
}
