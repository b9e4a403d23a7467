// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPairs(t *testing.T) {
	in := `[["hola", "hello"], ["line\\none", "x"], ["real\nnewline", "y"]]`
	pairs, err := ReadPairs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Front: "hola", Back: "hello"},
		{Front: "line\none", Back: "x"},
		{Front: "real\nnewline", Back: "y"},
	}, pairs)
}

func TestReadPairs_Empty(t *testing.T) {
	pairs, err := ReadPairs(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestReadPairs_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"not json":     `hola`,
		"not an array": `{"front": "a"}`,
		"one field":    `[["a"]]`,
		"three fields": `[["a", "b", "c"]]`,
		"non-string":   `[["a", 2]]`,
	} {
		_, err := ReadPairs(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrInvalidArgument, name)
	}
}

func TestWritePairs_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePairs(&buf, []Pair{
		{Front: "hola", Back: "hello"},
		{Front: "line\none", Back: "two\nlines"},
		{Front: "café", Back: "coffee"},
	}))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_pairs", buf.Bytes())
}

func TestWritePairsFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deck.json")
	want := []Pair{{Front: "a", Back: "b"}, {Front: "c", Back: "d"}}
	require.NoError(t, WritePairsFile(path, want))

	got, err := ReadPairsFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ReadPairsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestPairsOf(t *testing.T) {
	items := []*Item{studied(newTestItem("a", "b"), t0), newTestItem("c", "d")}
	assert.Equal(t, []Pair{{Front: "a", Back: "b"}, {Front: "c", Back: "d"}}, PairsOf(items))
}

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "spanish", NameFromPath("/home/me/decks/spanish.json"))
	assert.Equal(t, "go.basics", NameFromPath("go.basics.json"))
	assert.Equal(t, "plain", NameFromPath("plain"))
}

func TestAnkiExport(t *testing.T) {
	var buf bytes.Buffer
	pairs := []Pair{{Front: "hola", Back: "hello"}, {Front: "adiós", Back: "goodbye"}}
	require.NoError(t, NewAnkiExporter("Spanish").Export(pairs, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	var collection *zip.File
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "collection.anki2" {
			collection = f
		}
	}
	assert.ElementsMatch(t, []string{"collection.anki2", "media"}, names)
	require.NotNil(t, collection)

	// Unpack the collection and check the notes made it in.
	rc, err := collection.Open()
	require.NoError(t, err)
	defer rc.Close()
	var data bytes.Buffer
	_, err = data.ReadFrom(rc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "collection.anki2")
	require.NoError(t, os.WriteFile(path, data.Bytes(), 0o644))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var notes, cards int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&notes))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cards WHERE type = 0 AND queue = 0`).Scan(&cards))
	assert.Equal(t, 2, notes)
	assert.Equal(t, 2, cards)

	var fields string
	require.NoError(t, db.QueryRow(`SELECT flds FROM notes ORDER BY id LIMIT 1`).Scan(&fields))
	assert.Equal(t, "hola\x1fhello", fields)

	var decks string
	require.NoError(t, db.QueryRow(`SELECT decks FROM col`).Scan(&decks))
	assert.Contains(t, decks, `"name":"Spanish"`)
}

func TestNewAnkiExporter_DefaultName(t *testing.T) {
	assert.Equal(t, "Arc Review", NewAnkiExporter("").deckName)
}
