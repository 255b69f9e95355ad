package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterner(ns encoding.Namespace, tokens ...string) *encoding.Interner {
	in := encoding.NewInterner(ns)
	for _, token := range tokens {
		in.Resolve(token)
	}
	return in
}

func TestWriteCSVTokenOrder(t *testing.T) {
	in := newInterner(encoding.Entities, "<c>", "<a>", "<b>", "<a>")

	var buf bytes.Buffer
	n, err := WriteCSV(in, &buf, Options{Order: encoding.OrderToken})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), n)
	assert.Equal(t, "<a>,1\n<b>,2\n<c>,0\n", buf.String())
}

func TestWriteCSVIDOrder(t *testing.T) {
	in := newInterner(encoding.Predicates, "<p2>", "<p1>")

	var buf bytes.Buffer
	_, err := WriteCSV(in, &buf, Options{Order: encoding.OrderID})
	require.NoError(t, err)

	assert.Equal(t, "<p2>,0\n<p1>,1\n", buf.String())
}

func TestWriteCSVIsReproducible(t *testing.T) {
	in := newInterner(encoding.Entities, "<x>", "<y>", "<z>", "<w>")

	var first, second bytes.Buffer
	_, err := WriteCSV(in, &first, Options{})
	require.NoError(t, err)
	_, err = WriteCSV(in, &second, Options{})
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteCSVDoesNotQuote(t *testing.T) {
	in := newInterner(encoding.Entities, `"a, b"`)

	var buf bytes.Buffer
	_, err := WriteCSV(in, &buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, "\"a, b\",0\n", buf.String())

	// The last comma still separates the identifier
	d, err := ReadCSV(&buf, encoding.Entities)
	require.NoError(t, err)
	token, err := d.DecodeID(0)
	require.NoError(t, err)
	assert.Equal(t, `"a, b"`, token)
}

func TestWriteCSVNotifies(t *testing.T) {
	in := newInterner(encoding.Entities, "<a>", "<b>", "<c>", "<d>", "<e>")

	var events []notify.Event
	opts := Options{
		FlushInterval: 2,
		Notifier:      notify.Func(func(e notify.Event) { events = append(events, e) }),
	}

	var buf bytes.Buffer
	_, err := WriteCSV(in, &buf, opts)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, notify.KindExportProgress, events[0].Kind)
	assert.Equal(t, uint64(2), events[0].Exported)
	assert.Equal(t, uint64(4), events[1].Exported)
	assert.Equal(t, notify.KindExportDone, events[2].Kind)
	assert.Equal(t, uint64(5), events[2].Exported)
	assert.Equal(t, "entity", events[2].Namespace)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSVReportsWriteErrors(t *testing.T) {
	in := newInterner(encoding.Entities, "<a>")

	_, err := WriteCSV(in, failingWriter{}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestExportFileRoundTrip(t *testing.T) {
	in := newInterner(encoding.Entities, "<http://example.org/b>", "<http://example.org/a>")
	path := filepath.Join(t.TempDir(), "corpus.entity2id.csv")

	n, err := ExportFile(in, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	d, err := ReadFile(path, encoding.Entities)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	for id := uint64(0); id < in.Len(); id++ {
		expected, _ := in.Token(id)
		token, err := d.DecodeID(id)
		require.NoError(t, err)
		assert.Equal(t, expected, token)
	}
}

func TestExportFileUnwritableDirectory(t *testing.T) {
	in := newInterner(encoding.Entities, "<a>")
	_, err := ExportFile(in, filepath.Join(t.TempDir(), "missing", "out.csv"), Options{})
	assert.Error(t, err)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no comma", input: "<a>\n", want: "missing ','"},
		{name: "bad id", input: "<a>,x\n", want: "invalid identifier"},
		{name: "duplicate id", input: "<a>,0\n<b>,0\n", want: "duplicate"},
		{name: "gap", input: "<a>,0\n<b>,2\n", want: "gap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), encoding.Entities)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), encoding.Predicates)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
