// Package metrics counts sampling and comparison activity with Prometheus
// counters. A CLI run owns one Metrics value with a private registry and
// can write it out in the node_exporter textfile format when it finishes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/irdiff/internal/compare"
)

const namespace = "irdiff"

// Metrics holds the counters for one process.
type Metrics struct {
	registry *prometheus.Registry

	SamplesAttempted  prometheus.Counter
	SamplesAccepted   prometheus.Counter
	TuplesEvaluated   *prometheus.CounterVec
	Miscompares       prometheus.Counter
	ExecutionFailures prometheus.Counter
}

// New registers the irdiff counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SamplesAttempted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_attempted_total",
			Help:      "Candidate argument tuples evaluated by the input validator.",
		}),
		SamplesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_accepted_total",
			Help:      "Candidate argument tuples accepted by the input validator.",
		}),
		TuplesEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tuples_evaluated_total",
			Help:      "Argument tuples run through the comparator, by outcome status.",
		}, []string{"status"}),
		Miscompares: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "miscompares_total",
			Help:      "Tuples whose results disagreed between backends or with the expected value.",
		}),
		ExecutionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "execution_failures_total",
			Help:      "Tuples a backend could not evaluate.",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSample counts one validator decision. It matches
// filter.Filter.OnAttempt.
func (m *Metrics) ObserveSample(accepted bool) {
	m.SamplesAttempted.Inc()
	if accepted {
		m.SamplesAccepted.Inc()
	}
}

// ObserveOutcome counts one comparator outcome. It matches
// compare.Options.Observer.
func (m *Metrics) ObserveOutcome(o compare.Outcome) {
	m.TuplesEvaluated.WithLabelValues(string(o.Status)).Inc()
	switch o.Status {
	case compare.StatusMiscompare:
		m.Miscompares.Inc()
	case compare.StatusExecutionFailure:
		m.ExecutionFailures.Inc()
	}
}

// WriteTextfile writes every counter to path in the Prometheus text format.
// The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Chain combines observers so several sinks can watch one comparator.
// Nil observers are skipped.
func Chain(observers ...func(compare.Outcome)) func(compare.Outcome) {
	var live []func(compare.Outcome)
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return func(o compare.Outcome) {
		for _, fn := range live {
			fn(o)
		}
	}
}
