// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/output"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newDeckCmd(engine *queue.Engine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
		Long:  "Create, rename, inspect and delete decks of cards",
	}

	cmd.AddCommand(newDeckListCmd(engine))
	cmd.AddCommand(newDeckCreateCmd(engine))
	cmd.AddCommand(newDeckRenameCmd(engine))
	cmd.AddCommand(newDeckDeleteCmd(engine))
	cmd.AddCommand(newDeckShowCmd(engine))

	return cmd
}

func newDeckListCmd(engine *queue.Engine) *cobra.Command {
	var out output.OutputOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}

			stats, err := engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if done, err := out.Structured(cmd.OutOrStdout(), stats); done {
				return err
			}

			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No decks found.")
				return nil
			}
			table := output.NewTable("Name", "Cards", "New", "Due", "Queued")
			for _, s := range stats {
				table.AddRow(s.Name, strconv.Itoa(s.Total), strconv.Itoa(s.New), strconv.Itoa(s.Due), strconv.Itoa(s.Queued))
			}
			return table.Render(cmd.OutOrStdout())
		},
	}

	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}

func newDeckCreateCmd(engine *queue.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := engine.CreateCollection(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("create deck: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck: %s\n", args[0])
			return nil
		},
	}
}

func newDeckRenameCmd(engine *queue.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := engine.RenameCollection(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("rename deck: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed deck: %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newDeckDeleteCmd(engine *queue.Engine) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a deck and all of its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := engine.ReadCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !force && len(items) > 0 {
				return fmt.Errorf("deck %q has %s, use --force to delete", args[0], plural(len(items), "card"))
			}

			if err := engine.DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck: %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the deck has cards")
	return cmd
}

func newDeckShowCmd(engine *queue.Engine) *cobra.Command {
	var out output.OutputOptions

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the cards in a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}

			items, err := engine.ReadCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if done, err := out.Structured(cmd.OutOrStdout(), items); done {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Deck: %s\n", args[0])
			fmt.Fprintf(w, "Cards: %d\n\n", len(items))
			if len(items) == 0 {
				return nil
			}

			table := output.NewTable("ID", "Front", "Back", "State", "Due", "Reps")
			for _, it := range items {
				table.AddRow(
					strconv.FormatInt(it.ID, 10),
					output.Truncate(it.Front, 30),
					output.Truncate(it.Back, 30),
					it.State.String(),
					it.Due.Local().Format(time.DateTime),
					strconv.Itoa(it.Reps),
				)
			}
			return table.Render(w)
		},
	}

	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}
