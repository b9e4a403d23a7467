// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// AnkiExporter writes a collection's pairs as an Anki .apkg package. Every
// card is exported as new: scheduling state does not leave this program.
type AnkiExporter struct {
	deckName string
}

// NewAnkiExporter creates a new Anki exporter for the named deck.
func NewAnkiExporter(deckName string) *AnkiExporter {
	if deckName == "" {
		deckName = "Arc Review"
	}
	return &AnkiExporter{deckName: deckName}
}

// Export builds the package in a temp dir and streams the zip to w.
func (e *AnkiExporter) Export(pairs []Pair, w io.Writer) error {
	tmpDir, err := os.MkdirTemp("", "anki-export-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "collection.anki2")
	if err := e.createDatabase(dbPath, pairs); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	zw := zip.NewWriter(w)
	if err := addFileToZip(zw, dbPath, "collection.anki2"); err != nil {
		return fmt.Errorf("add database to zip: %w", err)
	}
	media, err := zw.Create("media")
	if err != nil {
		return fmt.Errorf("add media to zip: %w", err)
	}
	if _, err := io.WriteString(media, "{}"); err != nil {
		return fmt.Errorf("add media to zip: %w", err)
	}
	return zw.Close()
}

const ankiSchema = `
	CREATE TABLE col (
		id INTEGER PRIMARY KEY, crt INTEGER NOT NULL, mod INTEGER NOT NULL,
		scm INTEGER NOT NULL, ver INTEGER NOT NULL, dty INTEGER NOT NULL,
		usn INTEGER NOT NULL, ls INTEGER NOT NULL, conf TEXT NOT NULL,
		models TEXT NOT NULL, decks TEXT NOT NULL, dconf TEXT NOT NULL,
		tags TEXT NOT NULL
	);
	CREATE TABLE notes (
		id INTEGER PRIMARY KEY, guid TEXT NOT NULL, mid INTEGER NOT NULL,
		mod INTEGER NOT NULL, usn INTEGER NOT NULL, tags TEXT NOT NULL,
		flds TEXT NOT NULL, sfld INTEGER NOT NULL, csum INTEGER NOT NULL,
		flags INTEGER NOT NULL, data TEXT NOT NULL
	);
	CREATE TABLE cards (
		id INTEGER PRIMARY KEY, nid INTEGER NOT NULL, did INTEGER NOT NULL,
		ord INTEGER NOT NULL, mod INTEGER NOT NULL, usn INTEGER NOT NULL,
		type INTEGER NOT NULL, queue INTEGER NOT NULL, due INTEGER NOT NULL,
		ivl INTEGER NOT NULL, factor INTEGER NOT NULL, reps INTEGER NOT NULL,
		lapses INTEGER NOT NULL, left INTEGER NOT NULL, odue INTEGER NOT NULL,
		odid INTEGER NOT NULL, flags INTEGER NOT NULL, data TEXT NOT NULL
	);
	CREATE TABLE revlog (
		id INTEGER PRIMARY KEY, cid INTEGER NOT NULL, usn INTEGER NOT NULL,
		ease INTEGER NOT NULL, ivl INTEGER NOT NULL, lastIvl INTEGER NOT NULL,
		factor INTEGER NOT NULL, time INTEGER NOT NULL, type INTEGER NOT NULL
	);
	CREATE INDEX ix_cards_nid ON cards (nid);
	CREATE INDEX ix_cards_sched ON cards (did, queue, due);
	CREATE INDEX ix_revlog_cid ON revlog (cid);
	CREATE INDEX ix_notes_csum ON notes (csum);
`

const (
	ankiDeckID  = int64(1)
	ankiModelID = int64(1)
)

func (e *AnkiExporter) createDatabase(dbPath string, pairs []Pair) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(ankiSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	now := time.Now().UnixMilli()
	conf, models, decks, dconf, err := e.collectionJSON(now)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '[]')
	`, now/1000, now, now, conf, models, decks, dconf); err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}

	for i, p := range pairs {
		noteID := now + int64(i)*1000
		cardID := noteID + 1
		fields := p.Front + "\x1f" + p.Back

		if _, err := tx.Exec(`
			INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
			VALUES (?, ?, ?, ?, -1, '', ?, ?, ?, 0, '')
		`, noteID, uuid.New().String(), ankiModelID, now, fields, p.Front, fieldChecksum(fields)); err != nil {
			return fmt.Errorf("insert note %d: %w", i, err)
		}
		// type 0 / queue 0 is a new card; due is its position in the new queue.
		if _, err := tx.Exec(`
			INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
			VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 2500, 0, 0, 0, 0, 0, 0, '')
		`, cardID, noteID, ankiDeckID, now, i); err != nil {
			return fmt.Errorf("insert card %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (e *AnkiExporter) collectionJSON(now int64) (conf, models, decks, dconf string, err error) {
	id := strconv.FormatInt(ankiDeckID, 10)
	parts := []any{
		map[string]any{"curModel": ankiModelID, "activeDecks": []int64{ankiDeckID}},
		map[string]any{strconv.FormatInt(ankiModelID, 10): map[string]any{
			"id": ankiModelID, "name": "Basic", "type": 0, "mod": now, "usn": -1,
			"sortf": 0, "did": ankiDeckID, "tags": []string{}, "vers": []int{},
			"tmpls": []map[string]any{{
				"name": "Card 1", "ord": 0, "qfmt": "{{Front}}",
				"afmt": "{{FrontSide}}<hr id=\"answer\">{{Back}}", "did": nil,
			}},
			"flds": []map[string]any{
				{"name": "Front", "ord": 0, "font": "Arial", "size": 20, "media": []string{}},
				{"name": "Back", "ord": 1, "font": "Arial", "size": 20, "media": []string{}},
			},
			"css": ".card { font-family: arial; font-size: 20px; text-align: center; }",
			"req": [][]any{{0, "all", []int{0}}},
		}},
		map[string]any{id: map[string]any{
			"id": ankiDeckID, "name": e.deckName, "desc": "", "mod": now, "usn": -1,
			"dyn": 0, "conf": 1, "collapsed": false,
			"newToday": []int{0, 0}, "revToday": []int{0, 0},
			"lrnToday": []int{0, 0}, "timeToday": []int{0, 0},
		}},
		map[string]any{"1": map[string]any{
			"id": 1, "mod": now, "usn": -1, "maxTaken": 60, "timer": 0,
			"new":   map[string]any{"delays": []float64{1, 10}, "ints": []int{1, 4, 7}, "initialFactor": 2500, "order": 1, "perDay": 20},
			"rev":   map[string]any{"perDay": 200, "maxIvl": 36500, "ivlFct": 1},
			"lapse": map[string]any{"delays": []float64{10}, "mult": 0, "minInt": 1, "leechFails": 8},
		}},
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			return "", "", "", "", fmt.Errorf("marshal collection config: %w", err)
		}
		out[i] = string(b)
	}
	return out[0], out[1], out[2], out[3], nil
}

// fieldChecksum is a stable 32-bit hash of the note fields.
func fieldChecksum(fields string) int64 {
	sum := int64(0)
	for _, c := range fields {
		sum = (sum*31 + int64(c)) & 0xFFFFFFFF
	}
	return sum
}

func addFileToZip(zw *zip.Writer, filePath, nameInZip string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = nameInZip
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
