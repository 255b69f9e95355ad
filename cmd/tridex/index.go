package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/tridex/internal/config"
	"github.com/aleksaelezovic/tridex/internal/corpus"
	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/export"
	"github.com/aleksaelezovic/tridex/internal/metrics"
	"github.com/aleksaelezovic/tridex/internal/notify"
	"github.com/aleksaelezovic/tridex/internal/pipeline"
	"github.com/aleksaelezovic/tridex/internal/storage"
	"github.com/aleksaelezovic/tridex/pkg/store"
)

type indexFlags struct {
	configPath    string
	mode          string
	policy        string
	flushInterval uint64
	order         string
	skipComments  bool
	storeDir      string
	metricsFile   string
	natsURL       string
	natsSubject   string
	logLevel      string
}

func indexCmd() *cobra.Command {
	var flags indexFlags

	cmd := &cobra.Command{
		Use:   "index <input> <output-dir>",
		Short: "Encode a triple file and export its dictionaries",
		Long: `Encode a triple file and export its dictionaries.

<input> may be a plain, .gz or .zst file, or a glob pattern such as
"dumps/**/*.nt.gz" to index several files one after the other. Every input
gets fresh dictionaries.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runIndex(cfg, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	f.StringVar(&flags.mode, "mode", "strict", "Token extraction mode (strict, permissive)")
	f.StringVar(&flags.policy, "policy", "recover", "Malformed line policy (recover, halt)")
	f.Uint64Var(&flags.flushInterval, "flush-interval", pipeline.DefaultFlushInterval, "Lines between output flushes and progress reports")
	f.StringVar(&flags.order, "order", "token", "Dictionary record order (token, id)")
	f.BoolVar(&flags.skipComments, "skip-comments", false, "Ignore blank and '#' lines")
	f.StringVar(&flags.storeDir, "store", "", "Also export dictionaries into a badger store at this directory")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	f.StringVar(&flags.natsURL, "nats-url", "", "Publish run events to this NATS server")
	f.StringVar(&flags.natsSubject, "nats-subject", notify.DefaultSubject, "Subject prefix for published events")
	f.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// loadConfig reads the config file, if any, and applies the flags that were
// set explicitly on top of it
func loadConfig(cmd *cobra.Command, flags indexFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("mode") {
		cfg.Mode = flags.mode
	}
	if changed("policy") {
		cfg.Policy = flags.policy
	}
	if changed("flush-interval") {
		cfg.FlushInterval = flags.flushInterval
	}
	if changed("order") {
		cfg.DictionaryOrder = flags.order
	}
	if changed("skip-comments") {
		cfg.SkipComments = flags.skipComments
	}
	if changed("store") {
		cfg.StoreDir = flags.storeDir
	}
	if changed("metrics-file") {
		cfg.MetricsFile = flags.metricsFile
	}
	if changed("nats-url") {
		cfg.NATS.URL = flags.natsURL
	}
	if changed("nats-subject") {
		cfg.NATS.Subject = flags.natsSubject
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runIndex(cfg *config.Config, input, outDir string) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	inputs, err := corpus.Expand(input)
	if err != nil {
		return err
	}
	if err := corpus.CheckStems(inputs); err != nil {
		return err
	}
	if err := corpus.CheckDir(outDir); err != nil {
		return err
	}

	m, err := metrics.New()
	if err != nil {
		return err
	}

	sinks := []notify.Notifier{notify.NewLogNotifier(logger), m}

	if cfg.NATS.URL != "" {
		conn, err := notify.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			return err
		}
		publisher := notify.NewNATSNotifier(conn, cfg.NATS.Subject)
		defer func() {
			if err := conn.Drain(); err != nil {
				logger.Warn("Failed to drain NATS connection", "error", err)
			}
			if dropped := publisher.Dropped(); dropped > 0 {
				logger.Warn("Some events were not published", "dropped", dropped)
			}
		}()
		sinks = append(sinks, publisher)
	}
	sink := notify.Multi(sinks...)

	var runErr error
	for _, path := range inputs {
		storeDir := cfg.StoreDir
		if storeDir != "" && len(inputs) > 1 {
			storeDir = filepath.Join(storeDir, corpus.Stem(path))
		}

		if err := indexFile(cfg, path, outDir, storeDir, sink, logger); err != nil {
			runErr = fmt.Errorf("%s: %w", path, err)
			break
		}
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("Failed to write metrics", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	return runErr
}

// indexFile runs one input through the pipeline and the exporters. The
// tables live only for the duration of the call.
func indexFile(cfg *config.Config, input, outDir, storeDir string, sink notify.Notifier, logger *slog.Logger) error {
	runID := uuid.New().String()
	notifier := notify.WithRun(sink, runID, filepath.Base(input))
	paths := corpus.Layout(input, outDir)

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	exportOpts, err := cfg.ExportOptions(notifier)
	if err != nil {
		return err
	}

	entities := encoding.NewInterner(encoding.Entities)
	predicates := encoding.NewInterner(encoding.Predicates)

	stats, runErr := encodeFile(opts, input, paths.Encoded, entities, predicates, notifier)

	var lineErr *pipeline.LineError
	if runErr != nil && !errors.As(runErr, &lineErr) {
		return runErr
	}

	// The dictionaries are written under halt too so the partial output
	// stays decodable
	if _, err := export.ExportFile(entities, paths.Entities, exportOpts); err != nil {
		return err
	}
	if _, err := export.ExportFile(predicates, paths.Predicates, exportOpts); err != nil {
		return err
	}

	if storeDir != "" {
		err := exportStore(storeDir, entities, predicates, exportOpts, store.RunStats{
			RunID:        runID,
			Source:       filepath.Base(input),
			Mode:         cfg.Mode,
			LinesRead:    stats.LinesRead,
			LinesEncoded: stats.LinesEncoded,
			LinesFailed:  stats.LinesFailed,
			Entities:     stats.Entities,
			Predicates:   stats.Predicates,
		})
		if err != nil {
			return err
		}
	}

	if stats.LinesFailed > 0 && runErr == nil {
		first := stats.Failures
		if len(first) > 0 {
			logger.Warn("Some lines could not be indexed",
				"run_id", runID,
				"failed", stats.LinesFailed,
				"first_line", first[0].Line,
				"first_error", first[0].Err)
		}
	}

	return runErr
}

func encodeFile(opts pipeline.Options, input, output string, entities, predicates *encoding.Interner, notifier notify.Notifier) (stats pipeline.Stats, err error) {
	in, err := corpus.Open(input)
	if err != nil {
		return stats, err
	}
	defer in.Close()

	out, err := os.Create(output) // #nosec G304 - path comes from the output layout
	if err != nil {
		return stats, fmt.Errorf("failed to create encoded file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = &pipeline.IOError{Op: "close", Line: stats.LinesRead, Err: closeErr}
		}
	}()

	return pipeline.New(opts, entities, predicates, notifier).Run(in, out)
}

func exportStore(dir string, entities, predicates *encoding.Interner, opts export.Options, stats store.RunStats) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	s, err := storage.NewBadgerStorage(dir)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Reset(); err != nil {
		return err
	}
	if _, err := export.ToStore(entities, s, opts); err != nil {
		return err
	}
	if _, err := export.ToStore(predicates, s, opts); err != nil {
		return err
	}
	if err := store.PutRunStats(s, stats); err != nil {
		return err
	}
	return s.Sync()
}
