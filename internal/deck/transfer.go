// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadPairs decodes a JSON array of [front, back] string pairs. Literal
// "\n" sequences in either side are turned into newlines.
func ReadPairs(r io.Reader) ([]Pair, error) {
	var raw [][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "read pairs", Err: err}
	}
	pairs := make([]Pair, 0, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, &Error{Kind: KindInvalidArgument, Op: "read pairs", Err: fmt.Errorf("entry %d has %d fields, want 2", i, len(p))}
		}
		pairs = append(pairs, Pair{
			Front: strings.ReplaceAll(p[0], `\n`, "\n"),
			Back:  strings.ReplaceAll(p[1], `\n`, "\n"),
		})
	}
	return pairs, nil
}

// ReadPairsFile opens path and decodes it with ReadPairs.
func ReadPairsFile(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPairs(f)
}

// WritePairs encodes pairs as a JSON array of [front, back] arrays.
func WritePairs(w io.Writer, pairs []Pair) error {
	raw := make([][2]string, len(pairs))
	for i, p := range pairs {
		raw[i] = [2]string{p.Front, p.Back}
	}
	return json.NewEncoder(w).Encode(raw)
}

// WritePairsFile writes pairs to path, creating parent directories and
// truncating any existing file.
func WritePairsFile(path string, pairs []Pair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePairs(f, pairs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// PairsOf strips scheduling from items, keeping their order.
func PairsOf(items []*Item) []Pair {
	pairs := make([]Pair, len(items))
	for i, it := range items {
		pairs[i] = Pair{Front: it.Front, Back: it.Back}
	}
	return pairs
}

// NameFromPath derives a collection name from an import file path: the
// base name without its extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
