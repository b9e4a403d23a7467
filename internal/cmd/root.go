// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/config"
	"github.com/mtreilly/arc-review/internal/queue"
)

// NewRootCmd creates the root command for arc-review. level, if non-nil,
// is adjusted by --log-level before any subcommand runs.
func NewRootCmd(cfg *config.Provider, engine *queue.Engine, level *slog.LevelVar) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "arc-review",
		Short: "Spaced-repetition review across named decks",
		Long: `Study flashcards on an FSRS schedule.

arc-review provides tools to:
- Create decks and cards, or import them from JSON
- Review due cards, with a daily cap on new cards per deck
- Export decks as JSON or Anki packages
- Watch a folder and import decks dropped into it`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if level == nil {
				return nil
			}
			return level.UnmarshalText([]byte(logLevel))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newDeckCmd(engine))
	root.AddCommand(newCardCmd(engine))
	root.AddCommand(newStudyCmd(cfg, engine))
	root.AddCommand(newNextCmd(engine))
	root.AddCommand(newAnswerCmd(engine))
	root.AddCommand(newCountCmd(engine))
	root.AddCommand(newImportCmd(engine))
	root.AddCommand(newExportCmd(engine))
	root.AddCommand(newWatchCmd(cfg, engine))
	root.AddCommand(newConfigCmd(cfg, engine))
	root.AddCommand(newStatsCmd(engine))

	return root
}

// refreshOnChange rebuilds the queue after a settings reload. Failures are
// logged; the previous queue stays in place.
func refreshOnChange(ctx context.Context, engine *queue.Engine) func(config.Config) {
	return func(config.Config) {
		if err := engine.Refresh(ctx); err != nil {
			slog.Warn("refresh after config change failed", "error", err)
		}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid card id %q", s)
	}
	return id, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// indent prefixes every line of s, for multi-line card text.
func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
