// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/output"
	"github.com/mtreilly/arc-review/internal/queue"
)

type statsReport struct {
	Decks  []queue.CollectionStats `json:"decks" yaml:"decks"`
	Totals queue.CollectionStats   `json:"totals" yaml:"totals"`
}

func newStatsCmd(engine *queue.Engine) *cobra.Command {
	var out output.OutputOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show review statistics",
		Long:  `Display per-deck card counts by state, how many cards are due, and how many made it into today's queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}

			decks, err := engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			report := statsReport{Decks: decks, Totals: queue.CollectionStats{Name: "Total"}}
			for _, d := range decks {
				report.Totals.Total += d.Total
				report.Totals.New += d.New
				report.Totals.Learning += d.Learning
				report.Totals.Review += d.Review
				report.Totals.Relearning += d.Relearning
				report.Totals.Due += d.Due
				report.Totals.Queued += d.Queued
			}

			w := cmd.OutOrStdout()
			if ok, err := out.Structured(w, report); ok || err != nil {
				return err
			}

			if len(decks) == 0 {
				fmt.Fprintln(w, "No decks yet.")
				return nil
			}
			table := output.NewTable("Deck", "Total", "New", "Learning", "Review", "Relearning", "Due", "Queued")
			for _, d := range append(decks, report.Totals) {
				table.AddRow(output.Truncate(d.Name, 40),
					strconv.Itoa(d.Total), strconv.Itoa(d.New), strconv.Itoa(d.Learning),
					strconv.Itoa(d.Review), strconv.Itoa(d.Relearning),
					strconv.Itoa(d.Due), strconv.Itoa(d.Queued))
			}
			return table.Render(w)
		},
	}

	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}
