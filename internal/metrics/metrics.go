// Package metrics counts parser activity with prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/trig"
)

const namespace = "conjtrig"

// Metrics holds the collectors of one process. Each instance has its own registry.
type Metrics struct {
	registry *prometheus.Registry

	statements  *prometheus.CounterVec
	violations  *prometheus.CounterVec
	conjectures prometheus.Counter
	settlements prometheus.Counter
	parses      *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Statements emitted by the parser, by context kind.",
		}, []string{"graph"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Recoverable violations reported, by class.",
		}, []string{"class"}),
		conjectures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conjectures_total",
			Help:      "Conjectures registered, summed over parse calls. A document parsed again counts again.",
		}),
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement statements emitted.",
		}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Completed parse calls, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Wall time of parse calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.statements, m.violations, m.conjectures, m.settlements, m.parses, m.duration)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler wraps next, counting each statement before passing it on. A nil next only counts.
func (m *Metrics) Handler(next rdf.Handler) rdf.Handler {
	return rdf.HandlerFunc(func(q *rdf.Quad) error {
		kind := "named"
		if q.InDefaultGraph() {
			kind = "default"
		}
		m.statements.WithLabelValues(kind).Inc()
		if next == nil {
			return nil
		}
		return next.HandleStatement(q)
	})
}

// ViolationHandler returns a parser violation callback counting by class, then calling next if set
func (m *Metrics) ViolationHandler(next func(trig.Violation)) func(trig.Violation) {
	return func(v trig.Violation) {
		m.violations.WithLabelValues(string(v.Class)).Inc()
		if next != nil {
			next(v)
		}
	}
}

// ObserveParse records the outcome of one parse call
func (m *Metrics) ObserveParse(stats trig.Stats, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.parses.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.conjectures.Add(float64(stats.Conjectures))
	m.settlements.Add(float64(stats.Settlements))
}

// WriteToTextfile writes the current values in the prometheus text format, for the node exporter textfile collector
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
