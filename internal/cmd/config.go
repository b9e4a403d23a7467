// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mtreilly/arc-review/internal/config"
	"github.com/mtreilly/arc-review/internal/output"
	"github.com/mtreilly/arc-review/internal/queue"
)

func newConfigCmd(cfg *config.Provider, engine *queue.Engine) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(newConfigGetCmd(cfg))
	cmd.AddCommand(newConfigSetCapCmd(cfg, engine))
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())
			return nil
		},
	})
	return cmd
}

func newConfigGetCmd(cfg *config.Provider) *cobra.Command {
	var out output.OutputOptions

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the effective settings",
		Long:  `Show the settings in effect, including environment overrides.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.Resolve(); err != nil {
				return err
			}
			c := cfg.Config()
			w := cmd.OutOrStdout()
			if ok, err := out.Structured(w, c); ok || err != nil {
				return err
			}

			db := c.Database
			if db == "" {
				db = "(default)"
			}
			tz := c.Timezone
			if tz == "" {
				tz = "Local"
			}
			table := output.NewTable("Setting", "Value")
			table.AddRow("new_items_per_day", strconv.Itoa(c.NewItemsPerDay))
			table.AddRow("storage", c.Storage)
			table.AddRow("database", db)
			table.AddRow("timezone", tz)
			table.AddRow("breaker.max_failures", strconv.FormatUint(uint64(c.Breaker.MaxFailures), 10))
			table.AddRow("breaker.timeout", c.Breaker.Timeout.String())
			return table.Render(w)
		},
	}

	out.AddOutputFlags(cmd, output.OutputTable)
	return cmd
}

func newConfigSetCapCmd(cfg *config.Provider, engine *queue.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "set-cap <n>",
		Short: "Set how many new cards each deck may introduce per day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid cap %q", args[0])
			}
			if err := cfg.SetNewItemCap(n); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			if err := engine.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "New cards per day: %d (%s queued)\n", n, plural(engine.Count(), "card"))
			return nil
		},
	}
}
