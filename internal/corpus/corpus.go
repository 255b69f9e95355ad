// Package corpus opens triple corpora and lays out the files a run writes.
package corpus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression suffixes recognised on input files
const (
	SuffixGzip = ".gz"
	SuffixZstd = ".zst"
)

// Paths are the outputs of indexing one input file
type Paths struct {
	Encoded    string
	Entities   string
	Predicates string
}

// Stem returns the base name of input without its compression suffix and
// its extension: "dump/wikidata.nt.gz" becomes "wikidata"
func Stem(input string) string {
	base := filepath.Base(input)
	for _, suffix := range []string{SuffixGzip, SuffixZstd} {
		base = strings.TrimSuffix(base, suffix)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Layout returns the output file names for input inside outDir
func Layout(input, outDir string) Paths {
	stem := Stem(input)
	return Paths{
		Encoded:    filepath.Join(outDir, stem+".ids.csv"),
		Entities:   filepath.Join(outDir, stem+".entity2id.csv"),
		Predicates: filepath.Join(outDir, stem+".relation2id.csv"),
	}
}

// CheckStems fails when two inputs would write the same output files, e.g.
// "a/dump.nt" and "b/dump.nt.gz"
func CheckStems(inputs []string) error {
	seen := make(map[string]string, len(inputs))
	for _, input := range inputs {
		stem := Stem(input)
		if prev, ok := seen[stem]; ok {
			return fmt.Errorf("%s and %s would both write the %s.* outputs; index them into separate folders", prev, input, stem)
		}
		seen[stem] = input
	}
	return nil
}

// Open opens a corpus for reading, decompressing .gz and .zst files on the
// fly. The returned closer releases both the decoder and the file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 - user supplied corpus path
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}

	switch {
	case strings.HasSuffix(path, SuffixGzip):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &readCloser{Reader: zr, close: func() error {
			zerr := zr.Close()
			if ferr := f.Close(); ferr != nil {
				return ferr
			}
			return zerr
		}}, nil

	case strings.HasSuffix(path, SuffixZstd):
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &readCloser{Reader: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil

	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error {
	return r.close()
}

// Expand resolves an input argument to the regular files it names. A plain
// path must exist and be a regular file; a pattern ("dumps/**/*.nt.gz") is
// matched with doublestar and must match at least one regular file. Results
// are sorted so batch runs are reproducible.
func Expand(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, fmt.Errorf("the file %s does not exist: %w", pattern, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("the file %s is not a regular file", pattern)
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, match)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}

	slices.Sort(files)
	return files, nil
}

// CheckDir verifies that path is an existing directory
func CheckDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("the folder %s does not exist: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("the folder %s is not a directory", path)
	}
	return nil
}

// containsGlob checks if a pattern contains glob characters
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
