// Package notify carries progress, failure and summary events out of the
// indexing pipeline. Sinks never report errors back: a broken or disabled
// sink must not stop a run.
package notify

import (
	"encoding/json"
	"time"
)

// Kind identifies the type of an Event
type Kind int

const (
	KindStarted Kind = iota
	KindProgress
	KindLineFailed
	KindSummary
	KindExportProgress
	KindExportDone
)

func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindProgress:
		return "progress"
	case KindLineFailed:
		return "line_failed"
	case KindSummary:
		return "summary"
	case KindExportProgress:
		return "export_progress"
	case KindExportDone:
		return "export_done"
	default:
		return "unknown"
	}
}

// MarshalText lets events carry a readable kind in JSON
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind   Kind      `json:"kind"`
	RunID  string    `json:"run_id,omitempty"`
	Source string    `json:"source,omitempty"`
	Time   time.Time `json:"time"`

	// Pipeline counters
	Line         uint64 `json:"line,omitempty"`
	LinesRead    uint64 `json:"lines_read,omitempty"`
	LinesEncoded uint64 `json:"lines_encoded,omitempty"`
	LinesFailed  uint64 `json:"lines_failed,omitempty"`
	LinesSkipped uint64 `json:"lines_skipped,omitempty"`
	Entities     uint64 `json:"entities,omitempty"`
	Predicates   uint64 `json:"predicates,omitempty"`

	// Line failures
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`

	// Dictionary export
	Namespace string `json:"namespace,omitempty"`
	Exported  uint64 `json:"exported,omitempty"`
	Total     uint64 `json:"total,omitempty"`

	// Duration is set on summaries and finished exports
	Duration time.Duration `json:"duration,omitempty"`
}

// JSON encodes the event for wire sinks
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier receives pipeline events
type Notifier interface {
	Notify(Event)
}

// Func adapts a function to the Notifier interface
type Func func(Event)

// Notify calls f(e)
func (f Func) Notify(e Event) {
	f(e)
}

type nop struct{}

func (nop) Notify(Event) {}

// Nop discards every event
var Nop Notifier = nop{}

// multi fans one event out to several sinks, in order
type multi []Notifier

func (m multi) Notify(e Event) {
	for _, n := range m {
		n.Notify(e)
	}
}

// Multi combines notifiers. Nil entries are dropped.
func Multi(notifiers ...Notifier) Notifier {
	var m multi
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	switch len(m) {
	case 0:
		return Nop
	case 1:
		return m[0]
	default:
		return m
	}
}

// WithRun stamps every event with a run id, a source name and the current
// time before passing it on
func WithRun(next Notifier, runID, source string) Notifier {
	return Func(func(e Event) {
		e.RunID = runID
		e.Source = source
		if e.Time.IsZero() {
			e.Time = time.Now()
		}
		next.Notify(e)
	})
}
