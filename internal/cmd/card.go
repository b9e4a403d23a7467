// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/output"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newCardCmd(engine *queue.Engine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage cards",
		Long:  "Add, edit, reset and delete the cards of a deck",
	}

	cmd.AddCommand(newCardAddCmd(engine))
	cmd.AddCommand(newCardEditCmd(engine))
	cmd.AddCommand(newCardResetCmd(engine))
	cmd.AddCommand(newCardDeleteCmd(engine))

	return cmd
}

func newCardAddCmd(engine *queue.Engine) *cobra.Command {
	var (
		front string
		back  string
		out   output.OutputOptions
	)

	cmd := &cobra.Command{
		Use:   "add <deck>",
		Short: "Add a new card",
		Long:  "Add a card to a deck. It starts New and is due immediately.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}
			if front == "" {
				return fmt.Errorf("front text is required")
			}

			id, err := engine.CreateItem(cmd.Context(), args[0], front, back)
			if err != nil {
				return fmt.Errorf("add card: %w", err)
			}
			card, err := engine.GetItem(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			if done, err := out.Structured(cmd.OutOrStdout(), card); done {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Card created: %s/%d\n", args[0], id)
			fmt.Fprintf(w, "Front: %s\n", output.Truncate(card.Front, 60))
			fmt.Fprintf(w, "Back: %s\n", output.Truncate(card.Back, 60))
			return nil
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "Front side text (required)")
	cmd.Flags().StringVar(&back, "back", "", "Back side text")
	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}

func newCardEditCmd(engine *queue.Engine) *cobra.Command {
	var front, back string

	cmd := &cobra.Command{
		Use:   "edit <deck> <id>",
		Short: "Change the text of a card",
		Long:  "Replace the front and/or back of a card. Its schedule is kept.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("front") && !cmd.Flags().Changed("back") {
				return fmt.Errorf("nothing to change: pass --front and/or --back")
			}

			card, err := engine.GetItem(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("front") {
				card.Front = front
			}
			if cmd.Flags().Changed("back") {
				card.Back = back
			}
			if err := engine.EditItem(cmd.Context(), args[0], id, card.Front, card.Back); err != nil {
				return fmt.Errorf("edit card: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card updated: %s/%d\n", args[0], id)
			return nil
		},
	}

	cmd.Flags().StringVar(&front, "front", "", "New front side text")
	cmd.Flags().StringVar(&back, "back", "", "New back side text")
	return cmd
}

func newCardResetCmd(engine *queue.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <deck> <id>",
		Short: "Forget a card's history and make it New again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if _, err := engine.ResetItem(cmd.Context(), args[0], id); err != nil {
				return fmt.Errorf("reset card: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card reset: %s/%d\n", args[0], id)
			return nil
		},
	}
}

func newCardDeleteCmd(engine *queue.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <deck> <id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := engine.DeleteItem(cmd.Context(), args[0], id); err != nil {
				return fmt.Errorf("delete card: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card deleted: %s/%d\n", args[0], id)
			return nil
		},
	}
}
