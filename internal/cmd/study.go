// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/config"
	"github.com/mtreilly/arc-review/internal/deck"
	"github.com/mtreilly/arc-review/internal/output"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newStudyCmd(cfg *config.Provider, engine *queue.Engine) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Review due cards interactively",
		Long: `Show each due card's front, reveal the back on Enter, then grade it:

  1  Again   forgot it
  2  Hard    recalled with difficulty
  3  Good    recalled
  4  Easy    recalled effortlessly

Type q at any prompt to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cfg != nil {
				// Pick up cap edits made while the session is open.
				if err := cfg.Watch(ctx, refreshOnChange(ctx, engine)); err != nil {
					slog.Warn("config watch unavailable", "error", err)
				}
			}

			s := &studySession{
				engine: engine,
				in:     bufio.NewScanner(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
			}
			reviewed := 0
			for {
				more, err := s.step(cmd)
				if err != nil {
					return err
				}
				if !more {
					break
				}
				reviewed++
				if once {
					break
				}
			}
			fmt.Fprintf(s.out, "\nReviewed %s. %d remaining.\n", plural(reviewed, "card"), engine.Count())
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Review a single card and exit")
	return cmd
}

type studySession struct {
	engine *queue.Engine
	in     *bufio.Scanner
	out    io.Writer
}

var errQuit = errors.New("quit")

// step reviews the head of the queue. It returns false when there is
// nothing left or the user quit.
func (s *studySession) step(cmd *cobra.Command) (bool, error) {
	entry, ok := s.engine.PeekNext()
	if !ok {
		fmt.Fprintln(s.out, "Nothing due. Come back later.")
		return false, nil
	}

	fmt.Fprintf(s.out, "\n[%s] %d due\n", entry.Collection, s.engine.Count())
	fmt.Fprintln(s.out, indent(entry.Item.Front, "  "))
	if _, err := s.prompt("Press Enter to reveal"); err != nil {
		return false, ignoreQuit(err)
	}
	fmt.Fprintln(s.out, "  ---")
	fmt.Fprintln(s.out, indent(entry.Item.Back, "  "))

	var outcome deck.Outcome
	for {
		line, err := s.prompt("Grade 1-4")
		if err != nil {
			return false, ignoreQuit(err)
		}
		if outcome, err = deck.ParseOutcome(line); err == nil {
			break
		}
		fmt.Fprintln(s.out, "  enter 1 (again), 2 (hard), 3 (good) or 4 (easy)")
	}

	it, err := s.engine.SubmitOutcome(cmd.Context(), entry.Collection, entry.Item.ID, outcome)
	if err != nil {
		return false, fmt.Errorf("submit review: %w", err)
	}
	fmt.Fprintf(s.out, "  %s -> %s, due %s\n", outcome, it.State, formatDue(it.Due, time.Now()))
	return true, nil
}

func (s *studySession) prompt(label string) (string, error) {
	fmt.Fprintf(s.out, "%s (q to quit): ", label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	line := strings.TrimSpace(s.in.Text())
	if strings.EqualFold(line, "q") {
		return "", errQuit
	}
	return line, nil
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// formatDue renders a due time relative to now for short intervals.
func formatDue(due, now time.Time) string {
	d := due.Sub(now)
	switch {
	case d <= 0:
		return "now"
	case d < time.Hour:
		return "in " + strconv.Itoa(int(d.Round(time.Minute)/time.Minute)) + "m"
	case d < 24*time.Hour:
		return "in " + strconv.Itoa(int(d.Round(time.Hour)/time.Hour)) + "h"
	}
	return due.Local().Format(time.DateOnly)
}

func newNextCmd(engine *queue.Engine) *cobra.Command {
	var out output.OutputOptions

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next card due for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}
			entry, ok := engine.PeekNext()
			if !ok {
				if done, err := out.Structured(cmd.OutOrStdout(), nil); done {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due.")
				return nil
			}
			if done, err := out.Structured(cmd.OutOrStdout(), entry); done {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Deck: %s\n", entry.Collection)
			fmt.Fprintf(w, "Card: %d (%s)\n", entry.Item.ID, entry.Item.State)
			fmt.Fprintf(w, "Front:\n%s\n", indent(entry.Item.Front, "  "))
			return nil
		},
	}

	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}

func newAnswerCmd(engine *queue.Engine) *cobra.Command {
	var out output.OutputOptions

	cmd := &cobra.Command{
		Use:   "answer <again|hard|good|easy|1-4>",
		Short: "Grade the card shown by next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}
			outcome, err := deck.ParseOutcome(args[0])
			if err != nil {
				return err
			}

			it, err := engine.SubmitNext(cmd.Context(), outcome)
			if errors.Is(err, queue.ErrEmpty) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing due.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("submit review: %w", err)
			}
			if done, err := out.Structured(cmd.OutOrStdout(), it); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%d: %s -> %s, due %s\n",
				it.Collection, it.ID, outcome, it.State, formatDue(it.Due, time.Now()))
			return nil
		},
	}

	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}

func newCountCmd(engine *queue.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of cards due now",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), engine.Count())
			return nil
		},
	}
}
