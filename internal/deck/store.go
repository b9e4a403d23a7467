// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store provides persistence for collections and items using SQL.
// Collections live in one table and items in another, so collection names
// only ever travel as bound parameters.
type Store struct {
	db *sql.DB
}

// NewStore creates a new item store and initializes the schema.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	// AUTOINCREMENT keeps deleted item ids from ever being handed out again.
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL,
		front TEXT NOT NULL,
		back TEXT NOT NULL,
		due TEXT NOT NULL,
		stability REAL NOT NULL,
		difficulty REAL NOT NULL,
		elapsed_days INTEGER NOT NULL,
		scheduled_days INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		lapses INTEGER NOT NULL,
		state INTEGER NOT NULL,
		last_review TEXT,
		previous_state INTEGER NOT NULL,
		log_outcome INTEGER,
		log_elapsed_days INTEGER,
		log_scheduled_days INTEGER,
		log_state INTEGER,
		log_reviewed_at TEXT,
		first_studied_at TEXT,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection_id, due);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Collection operations

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY id`)
	if err != nil {
		return nil, unavailable("list collections", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable("list collections", err)
		}
		names = append(names, name)
	}
	return names, unavailable("list collections", rows.Err())
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, err := s.collectionID(ctx, name); err == nil {
		return &Error{Kind: KindConflict, Op: "create collection", Err: fmt.Errorf("collection %q already exists", name)}
	} else if !IsNotFound(err) {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, created_at) VALUES (?, ?)`,
		name, formatTime(time.Now()))
	return unavailable("create collection", err)
}

func (s *Store) RenameCollection(ctx context.Context, oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	if _, err := s.collectionID(ctx, oldName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, err := s.collectionID(ctx, newName); err == nil {
		return &Error{Kind: KindConflict, Op: "rename collection", Err: fmt.Errorf("collection %q already exists", newName)}
	} else if !IsNotFound(err) {
		return err
	}

	_, err := s.db.ExecContext(ctx, `UPDATE collections SET name = ? WHERE name = ?`, newName, oldName)
	return unavailable("rename collection", err)
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	id, err := s.collectionID(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("delete collection", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE collection_id = ?`, id); err != nil {
		return unavailable("delete collection", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id); err != nil {
		return unavailable("delete collection", err)
	}
	return unavailable("delete collection", tx.Commit())
}

func (s *Store) collectionID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM collections WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("lookup collection", "collection %q not found", name)
	}
	if err != nil {
		return 0, unavailable("lookup collection", err)
	}
	return id, nil
}

// Item operations

const itemColumns = `i.id, c.name, i.front, i.back, i.due, i.stability, i.difficulty,
	i.elapsed_days, i.scheduled_days, i.reps, i.lapses, i.state, i.last_review,
	i.previous_state, i.log_outcome, i.log_elapsed_days, i.log_scheduled_days,
	i.log_state, i.log_reviewed_at, i.first_studied_at`

func (s *Store) ReadAll(ctx context.Context, collection string) ([]*Item, error) {
	id, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items i JOIN collections c ON c.id = i.collection_id
		WHERE i.collection_id = ? ORDER BY i.id
	`, id)
	if err != nil {
		return nil, unavailable("read items", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, unavailable("read items", rows.Err())
}

func (s *Store) Get(ctx context.Context, collection string, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items i JOIN collections c ON c.id = i.collection_id
		WHERE c.name = ? AND i.id = ?
	`, collection, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get item", "item %d not found in %q", id, collection)
	}
	return it, err
}

func (s *Store) Insert(ctx context.Context, collection string, item *Item) (int64, error) {
	cid, err := s.collectionID(ctx, collection)
	if err != nil {
		return 0, err
	}

	v := columnValues(item)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (collection_id, front, back, due, stability, difficulty,
			elapsed_days, scheduled_days, reps, lapses, state, last_review, previous_state,
			log_outcome, log_elapsed_days, log_scheduled_days, log_state, log_reviewed_at,
			first_studied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]any{cid}, append(v, nullTime(item.FirstStudiedAt))...)...)
	if err != nil {
		return 0, unavailable("insert item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable("insert item", err)
	}
	item.ID = id
	item.Collection = collection
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection string, id int64, item *Item) error {
	cid, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}

	first := nullTime(item.FirstStudiedAt)
	args := append(columnValues(item), first, first, id, cid)
	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET
			front = ?, back = ?, due = ?, stability = ?, difficulty = ?,
			elapsed_days = ?, scheduled_days = ?, reps = ?, lapses = ?, state = ?,
			last_review = ?, previous_state = ?, log_outcome = ?, log_elapsed_days = ?,
			log_scheduled_days = ?, log_state = ?, log_reviewed_at = ?,
			first_studied_at = CASE WHEN ? IS NULL THEN NULL ELSE COALESCE(first_studied_at, ?) END
		WHERE id = ? AND collection_id = ?
	`, args...)
	if err != nil {
		return unavailable("update item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update item", err)
	}
	if n == 0 {
		return notFound("update item", "item %d not found in %q", id, collection)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, id int64) error {
	cid, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ? AND collection_id = ?`, id, cid)
	if err != nil {
		return unavailable("delete item", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete item", err)
	}
	if n == 0 {
		return notFound("delete item", "item %d not found in %q", id, collection)
	}
	return nil
}

// columnValues returns the bind values for front through log_reviewed_at.
func columnValues(it *Item) []any {
	var (
		logOutcome, logElapsed, logScheduled, logState any
		logReviewed                                    any
	)
	if it.Log != nil {
		logOutcome = int(it.Log.Outcome)
		logElapsed = it.Log.ElapsedDays
		logScheduled = it.Log.ScheduledDays
		logState = int(it.Log.State)
		logReviewed = formatTime(it.Log.ReviewedAt)
	}
	var lastReview any
	if !it.LastReview.IsZero() {
		lastReview = formatTime(it.LastReview)
	}
	return []any{
		it.Front, it.Back, formatTime(it.Due), it.Stability, it.Difficulty,
		it.ElapsedDays, it.ScheduledDays, it.Reps, it.Lapses, int(it.State),
		lastReview, int(it.PreviousState), logOutcome, logElapsed, logScheduled,
		logState, logReviewed,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		it                                  Item
		due                                 string
		state, prevState                    int
		lastReview, logReviewed, firstStudy sql.NullString
		logOutcome, logElapsed              sql.NullInt64
		logScheduled, logState              sql.NullInt64
	)
	err := row.Scan(&it.ID, &it.Collection, &it.Front, &it.Back, &due, &it.Stability, &it.Difficulty,
		&it.ElapsedDays, &it.ScheduledDays, &it.Reps, &it.Lapses, &state, &lastReview,
		&prevState, &logOutcome, &logElapsed, &logScheduled, &logState, &logReviewed, &firstStudy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, unavailable("scan item", err)
	}

	it.State = State(state)
	it.PreviousState = State(prevState)
	if it.Due, err = parseTime(due); err != nil {
		return nil, invalidRow(&it, "due", err)
	}
	if lastReview.Valid {
		if it.LastReview, err = parseTime(lastReview.String); err != nil {
			return nil, invalidRow(&it, "last_review", err)
		}
	}
	if logOutcome.Valid {
		it.Log = &OutcomeLog{
			Outcome:       Outcome(logOutcome.Int64),
			ElapsedDays:   int(logElapsed.Int64),
			ScheduledDays: int(logScheduled.Int64),
			State:         State(logState.Int64),
		}
		if logReviewed.Valid {
			if it.Log.ReviewedAt, err = parseTime(logReviewed.String); err != nil {
				return nil, invalidRow(&it, "log_reviewed_at", err)
			}
		}
	}
	if firstStudy.Valid {
		t, err := parseTime(firstStudy.String)
		if err != nil {
			return nil, invalidRow(&it, "first_studied_at", err)
		}
		it.FirstStudiedAt = &t
	}
	return &it, nil
}

func invalidRow(it *Item, column string, err error) error {
	return &Error{
		Kind: KindInvalidState,
		Op:   fmt.Sprintf("scan item %s/%d", it.Collection, it.ID),
		Err:  fmt.Errorf("column %s: %w", column, err),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
