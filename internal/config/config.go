// Package config provides configuration loading for tridex runs.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/export"
	"github.com/aleksaelezovic/tridex/internal/notify"
	"github.com/aleksaelezovic/tridex/internal/ntline"
	"github.com/aleksaelezovic/tridex/internal/pipeline"
)

// Config represents the complete configuration of an indexing run
type Config struct {
	// Mode is the token extraction mode (strict, permissive)
	Mode string `yaml:"mode"`
	// Policy is what a malformed line does to the run (recover, halt)
	Policy string `yaml:"policy"`
	// FlushInterval is the number of lines between output flushes
	FlushInterval uint64 `yaml:"flush_interval"`
	// SkipComments ignores blank and '#' lines
	SkipComments bool `yaml:"skip_comments"`

	MaxLineBytes        int `yaml:"max_line_bytes"`
	MaxReportedFailures int `yaml:"max_reported_failures"`

	// DictionaryOrder is the record order of exported dictionaries (token, id)
	DictionaryOrder string `yaml:"dictionary_order"`

	// StoreDir is a badger directory to export dictionaries into (empty = none)
	StoreDir string `yaml:"store_dir"`
	// MetricsFile is a Prometheus textfile written after the run (empty = none)
	MetricsFile string `yaml:"metrics_file"`

	LogLevel string `yaml:"log_level"`

	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig configures the event publisher
type NATSConfig struct {
	// URL is the NATS server URL (empty = no publishing)
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns a Config with the defaults of the command line tool
func Default() *Config {
	return &Config{
		Mode:                ntline.ModeStrict.String(),
		Policy:              pipeline.PolicyRecover.String(),
		FlushInterval:       pipeline.DefaultFlushInterval,
		MaxLineBytes:        pipeline.DefaultMaxLineBytes,
		MaxReportedFailures: pipeline.DefaultMaxReportedFailures,
		DictionaryOrder:     encoding.OrderToken.String(),
		LogLevel:            "info",
		NATS: NATSConfig{
			Subject: notify.DefaultSubject,
		},
	}
}

// Load reads a YAML file over the defaults. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := ntline.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if _, err := pipeline.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if _, err := encoding.ParseOrder(c.DictionaryOrder); err != nil {
		return fmt.Errorf("dictionary_order: %w", err)
	}
	if c.FlushInterval == 0 {
		return fmt.Errorf("flush_interval must be positive")
	}
	if c.MaxLineBytes <= 0 {
		return fmt.Errorf("max_line_bytes must be positive")
	}
	if int64(c.MaxLineBytes) > pipeline.MaxLineBytesLimit {
		return fmt.Errorf("max_line_bytes must not exceed %d", int64(pipeline.MaxLineBytesLimit))
	}
	if c.MaxReportedFailures < 0 {
		return fmt.Errorf("max_reported_failures must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level: %s", c.LogLevel)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	return nil
}

// PipelineOptions converts the configuration into pipeline options
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	mode, err := ntline.ParseMode(c.Mode)
	if err != nil {
		return pipeline.Options{}, err
	}
	policy, err := pipeline.ParsePolicy(c.Policy)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Mode:                mode,
		Policy:              policy,
		FlushInterval:       c.FlushInterval,
		SkipComments:        c.SkipComments,
		MaxLineBytes:        c.MaxLineBytes,
		MaxReportedFailures: c.MaxReportedFailures,
	}, nil
}

// ExportOptions converts the configuration into dictionary export options
func (c *Config) ExportOptions(notifier notify.Notifier) (export.Options, error) {
	order, err := encoding.ParseOrder(c.DictionaryOrder)
	if err != nil {
		return export.Options{}, err
	}

	return export.Options{
		Order:         order,
		FlushInterval: c.FlushInterval,
		Notifier:      notifier,
	}, nil
}
