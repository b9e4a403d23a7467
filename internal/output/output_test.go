// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	var o OutputOptions
	cmd := &cobra.Command{Use: "x"}
	o.AddOutputFlags(cmd, OutputTable)

	require.NoError(t, o.Resolve())
	assert.True(t, o.Is(OutputTable))

	require.NoError(t, cmd.Flags().Set("output", "YAML"))
	require.NoError(t, o.Resolve())
	assert.True(t, o.Is(OutputYAML))

	require.NoError(t, cmd.Flags().Set("output", "xml"))
	assert.Error(t, o.Resolve())
}

func TestStructured(t *testing.T) {
	o := OutputOptions{raw: "json"}
	require.NoError(t, o.Resolve())

	var buf bytes.Buffer
	done, err := o.Structured(&buf, map[string]int{"due": 3})
	require.NoError(t, err)
	assert.True(t, done)
	assert.JSONEq(t, `{"due": 3}`, buf.String())

	o = OutputOptions{raw: "table"}
	require.NoError(t, o.Resolve())
	done, err = o.Structured(&buf, nil)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, map[string]string{"name": "Demo"}))
	assert.Equal(t, "name: Demo\n", buf.String())
}

func TestTableRender(t *testing.T) {
	tbl := NewTable("Name", "Due")
	tbl.AddRow("Spanish", "4")
	tbl.AddRow("Go")

	var buf bytes.Buffer
	require.NoError(t, tbl.Render(&buf))
	assert.Equal(t, "Name     Due\nSpanish  4\nGo       \n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmno", 10))
	assert.Equal(t, "a b", Truncate("a\nb", 10))
}
