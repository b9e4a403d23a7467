// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/deck"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newExportCmd(engine *queue.Engine) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <deck> <path>",
		Short: "Export a deck to a file",
		Long: `Export the cards of a deck. Only front and back are written; review
history stays behind.

Formats:
  json   array of [front, back] pairs, readable by import
  anki   Anki .apkg package of new Basic cards`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := engine.ReadCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pairs := deck.PairsOf(items)
			path := expandHome(args[1])

			switch format {
			case "json":
				err = deck.WritePairsFile(path, pairs)
			case "anki":
				err = exportAnki(args[0], path, pairs)
			default:
				return fmt.Errorf("unsupported format: %s (choose json, anki)", format)
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s from %q to %s\n", plural(len(pairs), "card"), args[0], path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json, anki")
	return cmd
}

func exportAnki(deckName, path string, pairs []deck.Pair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := deck.NewAnkiExporter(deckName).Export(pairs, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
