// Package export writes interning tables out as dictionaries and reads them
// back.
//
// The CSV form has one "token,identifier" record per line, no header and no
// quoting. A token containing a comma makes its line ambiguous to generic
// CSV readers; ReadCSV splits on the last comma, which is unambiguous
// because identifiers are plain decimal numbers.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/notify"
)

const (
	// DefaultFlushInterval is the number of records between flushes
	DefaultFlushInterval = 10_000_000

	writeBufferSize = 1 << 20
)

// Options configures an export
type Options struct {
	Order         encoding.Order
	FlushInterval uint64
	Notifier      notify.Notifier
}

func (o Options) withDefaults() Options {
	if o.FlushInterval == 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.Notifier == nil {
		o.Notifier = notify.Nop
	}
	return o
}

// WriteCSV writes every entry of in to w in the configured order and returns
// the number of records written
func WriteCSV(in *encoding.Interner, w io.Writer, opts Options) (uint64, error) {
	opts = opts.withDefaults()
	start := time.Now()
	out := bufio.NewWriterSize(w, writeBufferSize)
	namespace := in.Namespace().String()
	total := in.Len()

	var written uint64
	buf := make([]byte, 0, 256)
	err := in.Each(opts.Order, func(token []byte, id uint64) error {
		buf = append(buf[:0], token...)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, id, 10)
		buf = append(buf, '\n')
		if _, err := out.Write(buf); err != nil {
			return err
		}

		written++
		if written%opts.FlushInterval == 0 {
			if err := out.Flush(); err != nil {
				return err
			}
			opts.Notifier.Notify(notify.Event{
				Kind:      notify.KindExportProgress,
				Namespace: namespace,
				Exported:  written,
				Total:     total,
			})
		}
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("failed to write %s dictionary: %w", namespace, err)
	}
	if err := out.Flush(); err != nil {
		return written, fmt.Errorf("failed to write %s dictionary: %w", namespace, err)
	}

	opts.Notifier.Notify(notify.Event{
		Kind:      notify.KindExportDone,
		Namespace: namespace,
		Exported:  written,
		Total:     total,
		Duration:  time.Since(start),
	})
	return written, nil
}

// ExportFile writes in to a new file at path. The file is closed on every
// path; a failed close is reported like a failed write.
func ExportFile(in *encoding.Interner, path string, opts Options) (n uint64, err error) {
	f, err := os.Create(path) // #nosec G304 - path comes from the output layout
	if err != nil {
		return 0, fmt.Errorf("failed to create dictionary file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close dictionary file: %w", closeErr)
		}
	}()

	return WriteCSV(in, f, opts)
}

// ReadCSV loads a dictionary written by WriteCSV into a decoder
func ReadCSV(r io.Reader, namespace encoding.Namespace) (*encoding.Decoder, error) {
	d := encoding.NewDecoder(namespace, 0)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)

	var lineNumber int
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if line == "" {
			continue
		}

		token, id, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("%s dictionary line %d: %w", namespace, lineNumber, err)
		}
		if err := d.Add(token, id); err != nil {
			return nil, fmt.Errorf("%s dictionary line %d: %w", namespace, lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s dictionary: %w", namespace, err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ReadFile opens path and loads it with ReadCSV
func ReadFile(path string, namespace encoding.Namespace) (*encoding.Decoder, error) {
	f, err := os.Open(path) // #nosec G304 - user supplied dictionary path
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, namespace)
}

func parseRecord(line string) (string, uint64, error) {
	idx := strings.LastIndexByte(line, ',')
	if idx < 0 {
		return "", 0, fmt.Errorf("missing ',' in record %q", line)
	}

	id, err := strconv.ParseUint(line[idx+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid identifier in record %q: %w", line, err)
	}
	return line[:idx], id, nil
}
