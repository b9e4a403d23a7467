// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Format is an output format name accepted by --output.
type Format string

const (
	OutputTable Format = "table"
	OutputJSON  Format = "json"
	OutputYAML  Format = "yaml"
)

// OutputOptions binds the --output flag of a command.
type OutputOptions struct {
	raw    string
	format Format
}

// AddOutputFlags registers --output/-o on cmd with def as default.
func (o *OutputOptions) AddOutputFlags(cmd *cobra.Command, def Format) {
	cmd.Flags().StringVarP(&o.raw, "output", "o", string(def), "Output format: table, json, yaml")
}

// Resolve validates the flag value. Call it at the top of RunE.
func (o *OutputOptions) Resolve() error {
	switch f := Format(strings.ToLower(strings.TrimSpace(o.raw))); f {
	case OutputTable, OutputJSON, OutputYAML:
		o.format = f
		return nil
	case "":
		o.format = OutputTable
		return nil
	}
	return fmt.Errorf("unsupported output format %q (choose table, json, yaml)", o.raw)
}

// Is reports whether the resolved format is f.
func (o *OutputOptions) Is(f Format) bool { return o.format == f }

// Structured writes v as JSON or YAML and reports whether it did. Table
// output is left to the caller.
func (o *OutputOptions) Structured(w io.Writer, v any) (bool, error) {
	switch o.format {
	case OutputJSON:
		return true, JSON(w, v)
	case OutputYAML:
		return true, YAML(w, v)
	}
	return false, nil
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as a YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Table collects rows and renders them column-aligned.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		cells := make([]string, len(t.headers))
		copy(cells, row)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// Truncate flattens newlines and shortens s to n runes, marking the cut
// with "...".
func Truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
