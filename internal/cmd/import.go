// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/deck"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newImportCmd(engine *queue.Engine) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a deck from a JSON file",
		Long: `Import a deck from a JSON array of [front, back] pairs.

The deck is named after the file unless --name is given. If that name is
taken, name(1), name(2), ... is used instead. Every card starts New.

Examples:
  arc-review import ~/decks/spanish.json
  arc-review import words.json --name "Vocabulary"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			used, n, err := importFile(cmd.Context(), engine, expandHome(args[0]), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into deck %q\n", plural(n, "card"), used)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Deck name (default: file name)")
	return cmd
}

// importFile reads a pair file and imports it as a new deck.
func importFile(ctx context.Context, engine *queue.Engine, path, name string) (string, int, error) {
	pairs, err := deck.ReadPairsFile(path)
	if err != nil {
		return "", 0, err
	}
	if name == "" {
		name = deck.NameFromPath(path)
	}
	used, err := engine.ImportCollection(ctx, name, pairs)
	if err != nil {
		return "", 0, fmt.Errorf("import %s: %w", path, err)
	}
	return used, len(pairs), nil
}

// expandHome expands a leading ~ to the home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
