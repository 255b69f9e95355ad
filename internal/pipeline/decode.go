package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/tridex/internal/encoding"
)

// ParseEncodedTriple parses one "s,p,o" record of an encoded corpus
func ParseEncodedTriple(record string) (EncodedTriple, error) {
	parts := strings.Split(record, ",")
	if len(parts) != 3 {
		return EncodedTriple{}, fmt.Errorf("expected 3 fields, got %d", len(parts))
	}

	var ids [3]uint64
	for i, part := range parts {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return EncodedTriple{}, fmt.Errorf("invalid identifier %q: %w", part, err)
		}
		ids[i] = id
	}

	return EncodedTriple{Subject: ids[0], Predicate: ids[1], Object: ids[2]}, nil
}

// Decode reverses Run: every record of r is looked up in the two decoders
// and written to w as "<s> <p> <o> .". It returns the number of triples
// written.
func Decode(r io.Reader, w io.Writer, entities, predicates *encoding.Decoder) (uint64, error) {
	scanner := bufio.NewScanner(r)
	out := bufio.NewWriterSize(w, writeBufferSize)

	var count uint64
	for scanner.Scan() {
		record := scanner.Text()
		if record == "" {
			continue
		}

		triple, err := ParseEncodedTriple(record)
		if err != nil {
			return count, fmt.Errorf("record %d: %w", count+1, err)
		}

		subject, err := entities.DecodeID(triple.Subject)
		if err != nil {
			return count, fmt.Errorf("record %d: subject: %w", count+1, err)
		}
		predicate, err := predicates.DecodeID(triple.Predicate)
		if err != nil {
			return count, fmt.Errorf("record %d: predicate: %w", count+1, err)
		}
		object, err := entities.DecodeID(triple.Object)
		if err != nil {
			return count, fmt.Errorf("record %d: object: %w", count+1, err)
		}

		if _, err := fmt.Fprintf(out, "%s %s %s .\n", subject, predicate, object); err != nil {
			return count, &IOError{Op: "write", Line: count, Err: err}
		}
		count++
	}

	if err := scanner.Err(); err != nil {
		return count, &IOError{Op: "read", Line: count, Err: err}
	}
	if err := out.Flush(); err != nil {
		return count, &IOError{Op: "write", Line: count, Err: err}
	}
	return count, nil
}
