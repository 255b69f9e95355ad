package main

import (
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/tridex/internal/corpus"
	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/export"
	"github.com/aleksaelezovic/tridex/internal/pipeline"
)

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <ids.csv> <entity2id.csv> <relation2id.csv>",
		Short: "Rebuild the triples of an encoded file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := export.ReadFile(args[1], encoding.Entities)
			if err != nil {
				return err
			}
			predicates, err := export.ReadFile(args[2], encoding.Predicates)
			if err != nil {
				return err
			}

			in, err := corpus.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			_, err = pipeline.Decode(in, cmd.OutOrStdout(), entities, predicates)
			return err
		},
	}
}
