package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/tridex/internal/corpus"
	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/storage"
	"github.com/aleksaelezovic/tridex/pkg/store"
)

// openStore opens an existing dictionary store written by "index --store"
func openStore(dir string) (*storage.BadgerStorage, error) {
	if err := corpus.CheckDir(dir); err != nil {
		return nil, err
	}
	return storage.NewBadgerStorage(dir)
}

func lookupCmd() *cobra.Command {
	var byToken bool

	cmd := &cobra.Command{
		Use:   "lookup <store-dir> (entity|relation) <token-or-id>",
		Short: "Resolve a token or identifier in a dictionary store",
		Long: `Resolve a token or identifier in a dictionary store written by
"tridex index --store". A numeric argument is read as an identifier unless
--token is given.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := encoding.ParseNamespace(args[1])
			if err != nil {
				return err
			}

			s, err := openStore(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			token, id, err := lookup(store.NewDictionary(s, ns), args[2], byToken)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s,%d\n", token, id)
			return err
		},
	}

	cmd.Flags().BoolVar(&byToken, "token", false, "Treat the argument as a token even if it is numeric")
	return cmd
}

func lookup(dict *store.Dictionary, arg string, byToken bool) (string, uint64, error) {
	if !byToken {
		if id, err := strconv.ParseUint(arg, 10, 64); err == nil {
			token, err := dict.LookupToken(id)
			return token, id, err
		}
	}

	id, err := dict.LookupID(arg)
	return arg, id, err
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <store-dir>",
		Short: "Show the run that filled a dictionary store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := store.GetRunStats(s)
			if err != nil {
				return err
			}
			entities, err := store.NewDictionary(s, encoding.Entities).Count()
			if err != nil {
				return err
			}
			relations, err := store.NewDictionary(s, encoding.Predicates).Count()
			if err != nil {
				return err
			}

			return writeStats(cmd.OutOrStdout(), stats, entities, relations)
		},
	}
}

func writeStats(w io.Writer, stats store.RunStats, entities, relations uint64) error {
	_, err := fmt.Fprintf(w, `run_id:        %s
source:        %s
mode:          %s
lines_read:    %d
lines_encoded: %d
lines_failed:  %d
entities:      %d (stored %d)
relations:     %d (stored %d)
`,
		stats.RunID, stats.Source, stats.Mode,
		stats.LinesRead, stats.LinesEncoded, stats.LinesFailed,
		stats.Entities, entities,
		stats.Predicates, relations)
	return err
}

func dumpCmd() *cobra.Command {
	var from, to uint64

	cmd := &cobra.Command{
		Use:   "dump <store-dir> (entity|relation)",
		Short: "Write a stored dictionary as token,id records in id order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := encoding.ParseNamespace(args[1])
			if err != nil {
				return err
			}
			if to > 0 && to <= from {
				return fmt.Errorf("--to must be greater than --from")
			}

			s, err := openStore(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			return store.NewDictionary(s, ns).Range(from, to, func(id uint64, token []byte) error {
				_, err := fmt.Fprintf(out, "%s,%d\n", token, id)
				return err
			})
		},
	}

	cmd.Flags().Uint64Var(&from, "from", 0, "First identifier to write")
	cmd.Flags().Uint64Var(&to, "to", 0, "Stop before this identifier (0 = to the end)")
	return cmd
}
