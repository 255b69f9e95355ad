// Package pipeline turns a triple corpus into its numeric encoding, one line
// at a time.
//
// For every input line the pipeline extracts the three tokens, resolves the
// subject and object in the entity table and the predicate in the predicate
// table, and writes "s,p,o". Lines that fail extraction are either reported
// and skipped (PolicyRecover) or stop the run (PolicyHalt).
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/notify"
	"github.com/aleksaelezovic/tridex/internal/ntline"
)

const (
	// DefaultFlushInterval is the number of lines between flushes and
	// progress notifications
	DefaultFlushInterval = 10_000_000

	// DefaultMaxLineBytes bounds the length of a single input line
	DefaultMaxLineBytes = 64 << 20

	// MaxLineBytesLimit is the largest accepted line limit; interned tokens
	// are addressed with 32-bit lengths
	MaxLineBytesLimit = math.MaxUint32

	// DefaultMaxReportedFailures bounds the failure details kept in Stats
	DefaultMaxReportedFailures = 100

	writeBufferSize = 1 << 20
)

// Policy decides what a parse failure does to the run
type Policy int

const (
	// PolicyRecover reports the line, skips it and keeps going
	PolicyRecover Policy = iota

	// PolicyHalt stops the run at the first malformed line
	PolicyHalt
)

func (p Policy) String() string {
	switch p {
	case PolicyRecover:
		return "recover"
	case PolicyHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a configuration value into a Policy
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recover", "":
		return PolicyRecover, nil
	case "halt":
		return PolicyHalt, nil
	default:
		return PolicyRecover, fmt.Errorf("unknown error policy: %s", s)
	}
}

// Options configures a Pipeline
type Options struct {
	Mode          ntline.Mode
	Policy        Policy
	FlushInterval uint64

	// SkipComments ignores blank and '#' lines instead of treating them as
	// malformed
	SkipComments bool

	MaxLineBytes        int
	MaxReportedFailures int
}

// DefaultOptions returns strict extraction with per-line recovery
func DefaultOptions() Options {
	return Options{
		Mode:                ntline.ModeStrict,
		Policy:              PolicyRecover,
		FlushInterval:       DefaultFlushInterval,
		MaxLineBytes:        DefaultMaxLineBytes,
		MaxReportedFailures: DefaultMaxReportedFailures,
	}
}

// EncodedTriple is the numeric form of one input line
type EncodedTriple struct {
	Subject   uint64
	Predicate uint64
	Object    uint64
}

// AppendCSV appends "s,p,o\n" to buf
func (t EncodedTriple) AppendCSV(buf []byte) []byte {
	buf = strconv.AppendUint(buf, t.Subject, 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, t.Predicate, 10)
	buf = append(buf, ',')
	buf = strconv.AppendUint(buf, t.Object, 10)
	return append(buf, '\n')
}

// LineFailure describes one skipped line
type LineFailure struct {
	Line uint64
	Text string
	Err  error
}

// Stats are the counters of one run
type Stats struct {
	LinesRead    uint64
	LinesEncoded uint64
	LinesFailed  uint64
	LinesSkipped uint64
	Entities     uint64
	Predicates   uint64

	// Failures holds the first MaxReportedFailures failures
	Failures []LineFailure

	Duration time.Duration
}

// Pipeline owns the counters of a run and writes into the two interners it
// is given. A Pipeline is single use.
type Pipeline struct {
	opts       Options
	entities   *encoding.Interner
	predicates *encoding.Interner
	notifier   notify.Notifier

	stats Stats
	buf   []byte
}

// New creates a pipeline. A nil notifier discards events.
func New(opts Options, entities, predicates *encoding.Interner, notifier notify.Notifier) *Pipeline {
	if opts.FlushInterval == 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}
	opts.MaxLineBytes = int(min(int64(opts.MaxLineBytes), MaxLineBytesLimit))
	if notifier == nil {
		notifier = notify.Nop
	}

	return &Pipeline{
		opts:       opts,
		entities:   entities,
		predicates: predicates,
		notifier:   notifier,
		buf:        make([]byte, 0, 64),
	}
}

// Stats returns a snapshot of the counters
func (p *Pipeline) Stats() Stats {
	stats := p.stats
	stats.Entities = p.entities.Len()
	stats.Predicates = p.predicates.Len()
	return stats
}

// Run reads r to the end and writes the encoded corpus to w.
//
// Under PolicyHalt the first malformed line is returned as a *LineError;
// everything encoded before it has been flushed to w. Read and write
// failures are returned as *IOError regardless of the policy, after a best
// effort flush of the lines already encoded.
func (p *Pipeline) Run(r io.Reader, w io.Writer) (Stats, error) {
	start := time.Now()
	out := bufio.NewWriterSize(w, writeBufferSize)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, p.opts.MaxLineBytes)), p.opts.MaxLineBytes)

	p.notifier.Notify(notify.Event{Kind: notify.KindStarted})

	err := p.encode(scanner, out)
	if err == nil {
		if scanErr := scanner.Err(); scanErr != nil {
			err = &IOError{Op: "read", Line: p.stats.LinesRead, Err: scanErr}
		}
	}

	// Whatever was encoded so far is kept, also on failure
	if flushErr := out.Flush(); flushErr != nil && err == nil {
		err = &IOError{Op: "write", Line: p.stats.LinesRead, Err: flushErr}
	}

	p.stats.Duration = time.Since(start)
	p.notifier.Notify(p.event(notify.KindSummary))

	return p.Stats(), err
}

func (p *Pipeline) encode(scanner *bufio.Scanner, out *bufio.Writer) error {
	for scanner.Scan() {
		p.stats.LinesRead++
		lineNumber := p.stats.LinesRead

		if err := p.encodeLine(scanner.Text(), lineNumber, out); err != nil {
			return err
		}

		if lineNumber%p.opts.FlushInterval == 0 {
			if err := out.Flush(); err != nil {
				return &IOError{Op: "write", Line: lineNumber, Err: err}
			}
			p.notifier.Notify(p.event(notify.KindProgress))
		}
	}
	return nil
}

func (p *Pipeline) encodeLine(line string, lineNumber uint64, out *bufio.Writer) error {
	if p.opts.SkipComments && ntline.IsIgnorable(line) {
		p.stats.LinesSkipped++
		return nil
	}

	triple, err := ntline.Extract(line, p.opts.Mode)
	if err != nil {
		return p.fail(lineNumber, line, err)
	}

	// Subject, predicate, object: the canonical token order
	encoded := EncodedTriple{
		Subject:   p.entities.Resolve(triple.Subject),
		Predicate: p.predicates.Resolve(triple.Predicate),
		Object:    p.entities.Resolve(triple.Object),
	}

	p.buf = encoded.AppendCSV(p.buf[:0])
	if _, err := out.Write(p.buf); err != nil {
		return &IOError{Op: "write", Line: lineNumber - 1, Err: err}
	}
	p.stats.LinesEncoded++
	return nil
}

func (p *Pipeline) fail(lineNumber uint64, line string, err error) error {
	p.stats.LinesFailed++

	event := p.event(notify.KindLineFailed)
	event.Line = lineNumber
	event.Message = err.Error()
	event.Text = line
	p.notifier.Notify(event)

	if p.opts.Policy == PolicyHalt {
		return &LineError{Line: lineNumber, Text: line, Err: err}
	}

	if len(p.stats.Failures) < p.opts.MaxReportedFailures {
		p.stats.Failures = append(p.stats.Failures, LineFailure{Line: lineNumber, Text: line, Err: err})
	}
	return nil
}

func (p *Pipeline) event(kind notify.Kind) notify.Event {
	return notify.Event{
		Kind:         kind,
		LinesRead:    p.stats.LinesRead,
		LinesEncoded: p.stats.LinesEncoded,
		LinesFailed:  p.stats.LinesFailed,
		LinesSkipped: p.stats.LinesSkipped,
		Entities:     p.entities.Len(),
		Predicates:   p.predicates.Len(),
		Duration:     p.stats.Duration,
	}
}
