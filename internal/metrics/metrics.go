// Package metrics exposes indexing progress as Prometheus collectors. The
// collectors are fed from pipeline notifications and written out once per
// run as a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/aleksaelezovic/tridex/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry *prometheus.Registry

	LinesRead    *prometheus.GaugeVec
	LinesEncoded *prometheus.GaugeVec
	LinesSkipped *prometheus.GaugeVec
	LineFailures *prometheus.CounterVec
	Entries      *prometheus.GaugeVec
	Exported     *prometheus.GaugeVec
	RunDuration  *prometheus.GaugeVec
	RunsFinished prometheus.Counter
}

// New creates and registers all collectors on a private registry
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		LinesRead: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tridex",
				Subsystem: "pipeline",
				Name:      "lines_read",
				Help:      "Lines read from the current input",
			},
			[]string{"source"},
		),

		LinesEncoded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tridex",
				Subsystem: "pipeline",
				Name:      "lines_encoded",
				Help:      "Lines written to the encoded corpus",
			},
			[]string{"source"},
		),

		LinesSkipped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tridex",
				Subsystem: "pipeline",
				Name:      "lines_skipped",
				Help:      "Blank and comment lines ignored",
			},
			[]string{"source"},
		),

		LineFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tridex",
				Subsystem: "pipeline",
				Name:      "line_failures_total",
				Help:      "Lines rejected by the token extractor",
			},
			[]string{"source"},
		),

		Entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tridex",
				Subsystem: "dictionary",
				Name:      "entries",
				Help:      "Distinct tokens interned per namespace",
			},
			[]string{"source", "namespace"},
		),

		Exported: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tridex",
				Subsystem: "dictionary",
				Name:      "exported",
				Help:      "Dictionary records written per namespace",
			},
			[]string{"source", "namespace"},
		),

		RunDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "tridex",
				Subsystem: "pipeline",
				Name:      "duration_seconds",
				Help:      "Wall time spent encoding the input",
			},
			[]string{"source"},
		),

		RunsFinished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tridex",
				Subsystem: "pipeline",
				Name:      "runs_finished_total",
				Help:      "Inputs whose encoding ended, halted and failed runs included",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.LinesRead, m.LinesEncoded, m.LinesSkipped, m.LineFailures,
		m.Entries, m.Exported, m.RunDuration, m.RunsFinished,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// Notify updates the collectors from a pipeline event
func (m *Metrics) Notify(e notify.Event) {
	switch e.Kind {
	case notify.KindProgress, notify.KindSummary:
		m.LinesRead.WithLabelValues(e.Source).Set(float64(e.LinesRead))
		m.LinesEncoded.WithLabelValues(e.Source).Set(float64(e.LinesEncoded))
		m.LinesSkipped.WithLabelValues(e.Source).Set(float64(e.LinesSkipped))
		m.Entries.WithLabelValues(e.Source, "entity").Set(float64(e.Entities))
		m.Entries.WithLabelValues(e.Source, "relation").Set(float64(e.Predicates))
		if e.Kind == notify.KindSummary {
			m.RunDuration.WithLabelValues(e.Source).Set(e.Duration.Seconds())
			m.RunsFinished.Inc()
		}

	case notify.KindLineFailed:
		m.LineFailures.WithLabelValues(e.Source).Inc()

	case notify.KindExportProgress, notify.KindExportDone:
		m.Exported.WithLabelValues(e.Source, e.Namespace).Set(float64(e.Exported))
	}
}

// WriteTextfile writes the current values in the text exposition format,
// replacing path atomically
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
