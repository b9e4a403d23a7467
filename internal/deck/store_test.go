// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtreilly/arc-review/internal/db"
	"github.com/mtreilly/arc-review/internal/kv"
)

// backends runs fn against every ItemStore implementation.
func backends(t *testing.T, fn func(t *testing.T, s ItemStore)) {
	t.Run("sql", func(t *testing.T) {
		database, err := db.Open(filepath.Join(t.TempDir(), "review.sqlite"))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		s, err := NewStore(database)
		require.NoError(t, err)
		fn(t, s)
	})
	t.Run("kv-memory", func(t *testing.T) {
		s, err := NewKVStore(kv.NewMemoryStore())
		require.NoError(t, err)
		fn(t, s)
	})
	t.Run("kv-sqlite", func(t *testing.T) {
		database, err := db.Open(filepath.Join(t.TempDir(), "kv.sqlite"))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		backend, err := kv.NewSQLiteStore(database)
		require.NoError(t, err)
		s, err := NewKVStore(backend)
		require.NoError(t, err)
		fn(t, s)
	})
}

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestItem(front, back string) *Item {
	return &Item{
		Front: front,
		Back:  back,
		Scheduling: Scheduling{
			Due:           t0,
			State:         New,
			PreviousState: New,
		},
	}
}

func studied(it *Item, at time.Time) *Item {
	it.State = Learning
	it.Reps = 1
	it.LastReview = at
	it.Due = at.Add(10 * time.Minute)
	it.Stability = 2.3
	it.Difficulty = 5.1
	it.Log = &OutcomeLog{Outcome: Good, State: Learning, ReviewedAt: at}
	it.FirstStudiedAt = &at
	return it
}

func TestStore_CollectionLifecycle(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()

		names, err := s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		require.NoError(t, s.CreateCollection(ctx, "Spanish"))
		require.NoError(t, s.CreateCollection(ctx, "Go"))

		err = s.CreateCollection(ctx, "Spanish")
		assert.ErrorIs(t, err, ErrConflict)
		assert.ErrorIs(t, s.CreateCollection(ctx, ""), ErrInvalidArgument)

		names, err = s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Spanish", "Go"}, names)

		require.NoError(t, s.RenameCollection(ctx, "Go", "Golang"))
		assert.ErrorIs(t, s.RenameCollection(ctx, "Golang", "Spanish"), ErrConflict)
		assert.ErrorIs(t, s.RenameCollection(ctx, "Missing", "Other"), ErrNotFound)
		require.NoError(t, s.RenameCollection(ctx, "Golang", "Golang"))

		names, err = s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Spanish", "Golang"}, names)

		require.NoError(t, s.DeleteCollection(ctx, "Spanish"))
		assert.ErrorIs(t, s.DeleteCollection(ctx, "Spanish"), ErrNotFound)

		names, err = s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Golang"}, names)
	})
}

func TestStore_ItemRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateCollection(ctx, "Demo"))

		in := studied(newTestItem("hola", "hello\nhi"), t0)
		id, err := s.Insert(ctx, "Demo", in)
		require.NoError(t, err)
		assert.Equal(t, id, in.ID)
		assert.Equal(t, "Demo", in.Collection)

		got, err := s.Get(ctx, "Demo", id)
		require.NoError(t, err)
		assert.Equal(t, "hola", got.Front)
		assert.Equal(t, "hello\nhi", got.Back)
		assert.Equal(t, "Demo", got.Collection)
		assert.Equal(t, Learning, got.State)
		assert.Equal(t, New, got.PreviousState)
		assert.Equal(t, 1, got.Reps)
		assert.InDelta(t, 2.3, got.Stability, 1e-9)
		assert.True(t, got.Due.Equal(t0.Add(10*time.Minute)))
		assert.True(t, got.LastReview.Equal(t0))
		require.NotNil(t, got.Log)
		assert.Equal(t, Good, got.Log.Outcome)
		require.NotNil(t, got.FirstStudiedAt)
		assert.True(t, got.FirstStudiedAt.Equal(t0))
		assert.NoError(t, got.Validate())

		_, err = s.Get(ctx, "Demo", id+100)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, "Missing", id)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Insert(ctx, "Missing", newTestItem("a", "b"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ReadAllInInsertionOrder(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateCollection(ctx, "Demo"))
		for _, f := range []string{"A", "B", "C"} {
			_, err := s.Insert(ctx, "Demo", newTestItem(f, f))
			require.NoError(t, err)
		}

		items, err := s.ReadAll(ctx, "Demo")
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i, f := range []string{"A", "B", "C"} {
			assert.Equal(t, f, items[i].Front)
			assert.Nil(t, items[i].Log)
			assert.Nil(t, items[i].FirstStudiedAt)
		}

		_, err = s.ReadAll(ctx, "Missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_UpdateKeepsFirstStudiedAt(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateCollection(ctx, "Demo"))
		id, err := s.Insert(ctx, "Demo", studied(newTestItem("a", "b"), t0))
		require.NoError(t, err)

		// A later time must not replace the stored one.
		later := studied(newTestItem("a2", "b2"), t0.Add(48*time.Hour))
		require.NoError(t, s.Update(ctx, "Demo", id, later))

		got, err := s.Get(ctx, "Demo", id)
		require.NoError(t, err)
		assert.Equal(t, "a2", got.Front)
		assert.True(t, got.LastReview.Equal(t0.Add(48*time.Hour)))
		require.NotNil(t, got.FirstStudiedAt)
		assert.True(t, got.FirstStudiedAt.Equal(t0))

		// nil clears it, as a reset does.
		require.NoError(t, s.Update(ctx, "Demo", id, newTestItem("a2", "b2")))
		got, err = s.Get(ctx, "Demo", id)
		require.NoError(t, err)
		assert.Nil(t, got.FirstStudiedAt)
		assert.Nil(t, got.Log)
		assert.Equal(t, New, got.State)

		assert.ErrorIs(t, s.Update(ctx, "Demo", id+100, later), ErrNotFound)
	})
}

func TestStore_IDsNotReusedAfterDelete(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateCollection(ctx, "Demo"))
		_, err := s.Insert(ctx, "Demo", newTestItem("a", "a"))
		require.NoError(t, err)
		second, err := s.Insert(ctx, "Demo", newTestItem("b", "b"))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "Demo", second))
		assert.ErrorIs(t, s.Delete(ctx, "Demo", second), ErrNotFound)

		third, err := s.Insert(ctx, "Demo", newTestItem("c", "c"))
		require.NoError(t, err)
		assert.Greater(t, third, second)

		items, err := s.ReadAll(ctx, "Demo")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].Front)
		assert.Equal(t, "c", items[1].Front)
	})
}

func TestStore_DeleteCollectionRemovesItems(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateCollection(ctx, "Demo"))
		_, err := s.Insert(ctx, "Demo", newTestItem("a", "a"))
		require.NoError(t, err)

		require.NoError(t, s.DeleteCollection(ctx, "Demo"))
		require.NoError(t, s.CreateCollection(ctx, "Demo"))

		items, err := s.ReadAll(ctx, "Demo")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestStore_RenameKeepsItems(t *testing.T) {
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateCollection(ctx, "Old"))
		id, err := s.Insert(ctx, "Old", newTestItem("a", "b"))
		require.NoError(t, err)

		require.NoError(t, s.RenameCollection(ctx, "Old", "New"))

		got, err := s.Get(ctx, "New", id)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Collection)
		_, err = s.ReadAll(ctx, "Old")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_NamesAreOpaque(t *testing.T) {
	names := []string{
		`Robert'); DROP TABLE items;--`,
		`with "quotes"`,
		"spaces and\ttabs",
		"español 日本語",
		"arc-review:item:x",
	}
	backends(t, func(t *testing.T, s ItemStore) {
		ctx := context.Background()
		for _, name := range names {
			require.NoError(t, s.CreateCollection(ctx, name))
			_, err := s.Insert(ctx, name, newTestItem(name, name))
			require.NoError(t, err)
		}

		got, err := s.ListCollections(ctx)
		require.NoError(t, err)
		assert.Equal(t, names, got)
		for _, name := range names {
			items, err := s.ReadAll(ctx, name)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, name, items[0].Front)
		}
	})
}

// brokenBatchKV fails the next Apply call without writing anything.
type brokenBatchKV struct {
	*kv.MemoryStore
	failNext bool
}

func (b *brokenBatchKV) Apply(ctx context.Context, ops ...kv.Op) error {
	if b.failNext {
		b.failNext = false
		return errors.New("disk gone")
	}
	return b.MemoryStore.Apply(ctx, ops...)
}

func TestKVStore_FailedWriteLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	backend := &brokenBatchKV{MemoryStore: kv.NewMemoryStore()}
	s, err := NewKVStore(backend)
	require.NoError(t, err)

	backend.failNext = true
	assert.ErrorIs(t, s.CreateCollection(ctx, "Spanish"), ErrStoreUnavailable)

	// No reserved name is left behind, so the retry is not a Conflict.
	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	require.NoError(t, s.CreateCollection(ctx, "Spanish"))

	backend.failNext = true
	_, err = s.Insert(ctx, "Spanish", newTestItem("a", "b"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	items, err := s.ReadAll(ctx, "Spanish")
	require.NoError(t, err)
	assert.Empty(t, items)

	id, err := s.Insert(ctx, "Spanish", newTestItem("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	backend.failNext = true
	assert.ErrorIs(t, s.DeleteCollection(ctx, "Spanish"), ErrStoreUnavailable)
	items, err = s.ReadAll(ctx, "Spanish")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	backend.failNext = true
	assert.ErrorIs(t, s.RenameCollection(ctx, "Spanish", "Español"), ErrStoreUnavailable)
	names, err = s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Spanish"}, names)
	require.NoError(t, s.CreateCollection(ctx, "Español"))
}
