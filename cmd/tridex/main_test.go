package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/tridex/internal/storage"
	"github.com/aleksaelezovic/tridex/pkg/store"
)

const corpusText = `<a> <p> <b> .
<b> <q> <a> .
<a> <p> <c> .
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCorpus(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestIndexAndDecode(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	input := writeCorpus(t, dir, "sample.nt", corpusText)

	_, err := execute(t, "index", input, outDir, "--log-level", "error")
	require.NoError(t, err)

	ids := filepath.Join(outDir, "sample.ids.csv")
	entities := filepath.Join(outDir, "sample.entity2id.csv")
	relations := filepath.Join(outDir, "sample.relation2id.csv")

	assert.Equal(t, "0,0,1\n1,1,0\n0,0,2\n", readFile(t, ids))
	assert.Equal(t, "<a>,0\n<b>,1\n<c>,2\n", readFile(t, entities))
	assert.Equal(t, "<p>,0\n<q>,1\n", readFile(t, relations))

	out, err := execute(t, "decode", ids, entities, relations)
	require.NoError(t, err)
	assert.Equal(t, corpusText, out)
}

func TestIndexRecoversFromMalformedLines(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	input := writeCorpus(t, dir, "broken.nt", "<a> <p> <b> .\nnot a triple\n<b> <p> <c> .\n")

	_, err := execute(t, "index", input, outDir, "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, "0,0,1\n1,0,2\n", readFile(t, filepath.Join(outDir, "broken.ids.csv")))
}

func TestIndexHalt(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	input := writeCorpus(t, dir, "broken.nt", "<a> <p> <b> .\nnot a triple\n<b> <p> <c> .\n")

	_, err := execute(t, "index", input, outDir, "--policy", "halt", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	assert.Equal(t, "0,0,1\n", readFile(t, filepath.Join(outDir, "broken.ids.csv")))
	assert.Equal(t, "<a>,0\n<b>,1\n", readFile(t, filepath.Join(outDir, "broken.entity2id.csv")))
}

func TestIndexArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeCorpus(t, dir, "sample.nt", corpusText)

	_, err := execute(t, "index", filepath.Join(dir, "missing.nt"), dir)
	assert.Error(t, err)

	_, err = execute(t, "index", input, filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = execute(t, "index", input, dir, "--mode", "lenient")
	assert.Error(t, err)

	_, err = execute(t, "index", input)
	assert.Error(t, err)
}

func TestIndexConfigFile(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	input := writeCorpus(t, dir, "sample.nt", "# header\n<b> <p> x .\n")
	configPath := writeCorpus(t, dir, "tridex.yaml", "mode: permissive\nskip_comments: true\nlog_level: error\n")

	_, err := execute(t, "index", input, outDir, "--config", configPath)
	require.NoError(t, err)
	assert.Equal(t, "0,0,1\n", readFile(t, filepath.Join(outDir, "sample.ids.csv")))

	// Flags override the file
	_, err = execute(t, "index", input, outDir, "--config", configPath, "--mode", "strict", "--policy", "halt")
	assert.Error(t, err)
}

func TestIndexStoreAndLookup(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	storeDir := filepath.Join(t.TempDir(), "dict")
	metricsFile := filepath.Join(t.TempDir(), "tridex.prom")
	input := writeCorpus(t, dir, "sample.nt", corpusText)

	_, err := execute(t, "index", input, outDir,
		"--store", storeDir,
		"--metrics-file", metricsFile,
		"--log-level", "error")
	require.NoError(t, err)

	out, err := execute(t, "lookup", storeDir, "entity", "<c>")
	require.NoError(t, err)
	assert.Equal(t, "<c>,2\n", out)

	out, err = execute(t, "lookup", storeDir, "relation", "1")
	require.NoError(t, err)
	assert.Equal(t, "<q>,1\n", out)

	_, err = execute(t, "lookup", storeDir, "relation", "<missing>")
	assert.Error(t, err)

	s, err := storage.NewBadgerStorage(storeDir)
	require.NoError(t, err)
	stats, err := store.GetRunStats(s)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, "sample.nt", stats.Source)
	assert.Equal(t, uint64(3), stats.LinesEncoded)
	assert.Equal(t, uint64(3), stats.Entities)
	assert.NotEmpty(t, stats.RunID)

	assert.Contains(t, readFile(t, metricsFile), `tridex_pipeline_lines_read{source="sample.nt"} 3`)
}

func TestIndexGlob(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	writeCorpus(t, dir, "one.nt", "<a> <p> <b> .\n")
	writeCorpus(t, dir, "two.nt", "<x> <q> <y> .\n<y> <q> <z> .\n")

	_, err := execute(t, "index", filepath.Join(dir, "*.nt"), outDir, "--log-level", "error")
	require.NoError(t, err)

	// Every input starts from empty dictionaries
	assert.Equal(t, "0,0,1\n", readFile(t, filepath.Join(outDir, "one.ids.csv")))
	assert.Equal(t, "0,0,1\n1,0,2\n", readFile(t, filepath.Join(outDir, "two.ids.csv")))
}

func TestIndexGlobRejectsSameStem(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	writeCorpus(t, dir, "a/dump.nt", "<a1> <p> <a2> .\n")
	writeCorpus(t, dir, "b/dump.nt", "<b1> <p> <b2> .\n<b2> <p> <b3> .\n")

	_, err := execute(t, "index", filepath.Join(dir, "**", "dump.nt"), outDir, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dump.*")

	// Nothing is written when the batch is rejected
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreStatsAndDump(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	storeDir := filepath.Join(t.TempDir(), "dict")
	input := writeCorpus(t, dir, "sample.nt", corpusText)

	_, err := execute(t, "index", input, outDir, "--store", storeDir, "--log-level", "error")
	require.NoError(t, err)

	out, err := execute(t, "stats", storeDir)
	require.NoError(t, err)
	assert.Contains(t, out, "source:        sample.nt")
	assert.Contains(t, out, "lines_encoded: 3")
	assert.Contains(t, out, "entities:      3 (stored 3)")
	assert.Contains(t, out, "relations:     2 (stored 2)")

	out, err = execute(t, "dump", storeDir, "entity")
	require.NoError(t, err)
	assert.Equal(t, "<a>,0\n<b>,1\n<c>,2\n", out)

	out, err = execute(t, "dump", storeDir, "entity", "--from", "1", "--to", "2")
	require.NoError(t, err)
	assert.Equal(t, "<b>,1\n", out)

	_, err = execute(t, "dump", storeDir, "entity", "--from", "2", "--to", "1")
	assert.Error(t, err)

	_, err = execute(t, "stats", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tridex version "+Version)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("whatever"))
}
