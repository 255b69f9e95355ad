// Package main provides the tridex binary entry point.
// Tridex encodes large triple dumps into numeric "s,p,o" records plus the
// entity and relation dictionaries needed to read them back.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "tridex"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Triple corpus indexer",
		Long: `Tridex reads a file of "<subject> <predicate> <object> ." lines and
replaces every token with a dense numeric identifier.

It writes three files per input:
- <stem>.ids.csv          one "s,p,o" record per encoded line
- <stem>.entity2id.csv    subject and object dictionary
- <stem>.relation2id.csv  predicate dictionary`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(indexCmd())
	cmd.AddCommand(decodeCmd())
	cmd.AddCommand(lookupCmd())
	cmd.AddCommand(statsCmd())
	cmd.AddCommand(dumpCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// parseLevel maps a log level name to its slog level, defaulting to info
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
}
