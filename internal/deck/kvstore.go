// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mtreilly/arc-review/internal/kv"
)

// KVStore implements ItemStore on top of a kv.Store. Values are JSON;
// ordered id lists stand in for table scans.
//
// Collections are keyed by a generated uuid so a rename only touches the
// name index, never the item keys.
type KVStore struct {
	kv kv.Store
}

type collectionRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewKVStore creates a new item store backed by the given kv.Store.
func NewKVStore(store kv.Store) (*KVStore, error) {
	return &KVStore{kv: store}, nil
}

// generateKey creates namespaced keys for different entity types.
func (s *KVStore) generateKey(prefix, id string) string {
	return fmt.Sprintf("arc-review:%s:%s", prefix, id)
}

func (s *KVStore) itemKey(collectionID string, id int64) string {
	return s.generateKey("item", collectionID+":"+strconv.FormatInt(id, 10))
}

// Collection operations

func (s *KVStore) ListCollections(ctx context.Context) ([]string, error) {
	ids, err := s.getCollectionIndex(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, err := s.getCollectionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		names = append(names, rec.Name)
	}
	return names, nil
}

func (s *KVStore) CreateCollection(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, err := s.getCollectionByName(ctx, name); err == nil {
		return &Error{Kind: KindConflict, Op: "create collection", Err: fmt.Errorf("collection %q already exists", name)}
	} else if !IsNotFound(err) {
		return err
	}

	ids, err := s.getCollectionIndex(ctx)
	if err != nil {
		return err
	}
	rec := collectionRecord{ID: uuid.New().String(), Name: name, CreatedAt: time.Now()}
	recOp, err := s.putOp(s.generateKey("collection", rec.ID), rec)
	if err != nil {
		return err
	}
	indexOp, err := s.putOp(s.generateKey("index", "collections"), append(ids, rec.ID))
	if err != nil {
		return err
	}
	return s.apply(ctx, "create collection",
		recOp,
		kv.Put(s.generateKey("collection:name", name), []byte(rec.ID)),
		indexOp,
	)
}

func (s *KVStore) RenameCollection(ctx context.Context, oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	rec, err := s.getCollectionByName(ctx, oldName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, err := s.getCollectionByName(ctx, newName); err == nil {
		return &Error{Kind: KindConflict, Op: "rename collection", Err: fmt.Errorf("collection %q already exists", newName)}
	} else if !IsNotFound(err) {
		return err
	}

	rec.Name = newName
	recOp, err := s.putOp(s.generateKey("collection", rec.ID), rec)
	if err != nil {
		return err
	}
	return s.apply(ctx, "rename collection",
		recOp,
		kv.Put(s.generateKey("collection:name", newName), []byte(rec.ID)),
		kv.Del(s.generateKey("collection:name", oldName)),
	)
}

func (s *KVStore) DeleteCollection(ctx context.Context, name string) error {
	rec, err := s.getCollectionByName(ctx, name)
	if err != nil {
		return err
	}

	itemIDs, err := s.getItemIndex(ctx, rec.ID)
	if err != nil {
		return err
	}
	ids, err := s.getCollectionIndex(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != rec.ID {
			kept = append(kept, id)
		}
	}
	indexOp, err := s.putOp(s.generateKey("index", "collections"), kept)
	if err != nil {
		return err
	}

	ops := make([]kv.Op, 0, len(itemIDs)+5)
	for _, id := range itemIDs {
		ops = append(ops, kv.Del(s.itemKey(rec.ID, id)))
	}
	ops = append(ops,
		kv.Del(s.generateKey("index:items", rec.ID)),
		kv.Del(s.generateKey("seq", rec.ID)),
		kv.Del(s.generateKey("collection:name", rec.Name)),
		kv.Del(s.generateKey("collection", rec.ID)),
		indexOp,
	)
	return s.apply(ctx, "delete collection", ops...)
}

func (s *KVStore) getCollectionByID(ctx context.Context, id string) (*collectionRecord, error) {
	var rec collectionRecord
	if err := s.getJSON(ctx, s.generateKey("collection", id), &rec); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, &Error{Kind: KindInvalidState, Op: "lookup collection", Err: fmt.Errorf("index references missing collection %s", id)}
		}
		return nil, err
	}
	return &rec, nil
}

func (s *KVStore) getCollectionByName(ctx context.Context, name string) (*collectionRecord, error) {
	data, err := s.kv.Get(ctx, s.generateKey("collection:name", name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, notFound("lookup collection", "collection %q not found", name)
	}
	if err != nil {
		return nil, unavailable("lookup collection", err)
	}
	return s.getCollectionByID(ctx, string(data))
}

func (s *KVStore) getCollectionIndex(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.getJSON(ctx, s.generateKey("index", "collections"), &ids)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}
	return ids, nil
}

// Item operations

func (s *KVStore) ReadAll(ctx context.Context, collection string) ([]*Item, error) {
	rec, err := s.getCollectionByName(ctx, collection)
	if err != nil {
		return nil, err
	}
	ids, err := s.getItemIndex(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(ids))
	for _, id := range ids {
		it, err := s.getItem(ctx, rec, id)
		if err != nil {
			if IsNotFound(err) {
				return nil, &Error{Kind: KindInvalidState, Op: "read items", Err: fmt.Errorf("index references missing item %d", id)}
			}
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *KVStore) Get(ctx context.Context, collection string, id int64) (*Item, error) {
	rec, err := s.getCollectionByName(ctx, collection)
	if err != nil {
		return nil, err
	}
	return s.getItem(ctx, rec, id)
}

func (s *KVStore) getItem(ctx context.Context, rec *collectionRecord, id int64) (*Item, error) {
	var it Item
	if err := s.getJSON(ctx, s.itemKey(rec.ID, id), &it); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, notFound("get item", "item %d not found in %q", id, rec.Name)
		}
		return nil, err
	}
	it.ID = id
	it.Collection = rec.Name
	return &it, nil
}

func (s *KVStore) Insert(ctx context.Context, collection string, item *Item) (int64, error) {
	rec, err := s.getCollectionByName(ctx, collection)
	if err != nil {
		return 0, err
	}

	id, err := s.nextSeq(ctx, rec.ID)
	if err != nil {
		return 0, err
	}
	ids, err := s.getItemIndex(ctx, rec.ID)
	if err != nil {
		return 0, err
	}

	stored := item.Clone()
	stored.ID = id
	stored.Collection = rec.Name
	itemOp, err := s.putOp(s.itemKey(rec.ID, id), stored)
	if err != nil {
		return 0, err
	}
	indexOp, err := s.putOp(s.generateKey("index:items", rec.ID), append(ids, id))
	if err != nil {
		return 0, err
	}
	err = s.apply(ctx, "insert item",
		kv.Put(s.generateKey("seq", rec.ID), []byte(strconv.FormatInt(id, 10))),
		itemOp,
		indexOp,
	)
	if err != nil {
		return 0, err
	}

	item.ID = id
	item.Collection = rec.Name
	return id, nil
}

func (s *KVStore) Update(ctx context.Context, collection string, id int64, item *Item) error {
	rec, err := s.getCollectionByName(ctx, collection)
	if err != nil {
		return err
	}
	existing, err := s.getItem(ctx, rec, id)
	if err != nil {
		return err
	}

	stored := item.Clone()
	stored.ID = id
	stored.Collection = rec.Name
	switch {
	case item.FirstStudiedAt == nil:
		stored.FirstStudiedAt = nil
	case existing.FirstStudiedAt != nil:
		stored.FirstStudiedAt = existing.FirstStudiedAt
	}
	return s.putJSON(ctx, s.itemKey(rec.ID, id), stored)
}

func (s *KVStore) Delete(ctx context.Context, collection string, id int64) error {
	rec, err := s.getCollectionByName(ctx, collection)
	if err != nil {
		return err
	}
	if _, err := s.getItem(ctx, rec, id); err != nil {
		return err
	}

	ids, err := s.getItemIndex(ctx, rec.ID)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	indexOp, err := s.putOp(s.generateKey("index:items", rec.ID), kept)
	if err != nil {
		return err
	}
	return s.apply(ctx, "delete item", indexOp, kv.Del(s.itemKey(rec.ID, id)))
}

func (s *KVStore) getItemIndex(ctx context.Context, collectionID string) ([]int64, error) {
	var ids []int64
	err := s.getJSON(ctx, s.generateKey("index:items", collectionID), &ids)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, err
	}
	return ids, nil
}

// nextSeq returns the next item id for a collection without claiming it;
// Insert writes the counter back in the same batch as the item. The counter
// only moves forward, so ids are not reused after deletes.
func (s *KVStore) nextSeq(ctx context.Context, collectionID string) (int64, error) {
	key := s.generateKey("seq", collectionID)
	var last int64
	data, err := s.kv.Get(ctx, key)
	switch {
	case err == nil:
		if last, err = strconv.ParseInt(string(data), 10, 64); err != nil {
			return 0, &Error{Kind: KindInvalidState, Op: "next id", Err: err}
		}
	case !errors.Is(err, kv.ErrNotFound):
		return 0, unavailable("next id", err)
	}
	return last + 1, nil
}

// helpers

func (s *KVStore) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return err
		}
		return unavailable("kv get", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Kind: KindInvalidState, Op: "decode " + key, Err: err}
	}
	return nil
}

func (s *KVStore) putJSON(ctx context.Context, key string, v any) error {
	op, err := s.putOp(key, v)
	if err != nil {
		return err
	}
	return unavailable("kv set", s.kv.Set(ctx, op.Key, op.Value))
}

func (s *KVStore) putOp(key string, v any) (kv.Op, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kv.Op{}, fmt.Errorf("marshal %s: %w", key, err)
	}
	return kv.Put(key, data), nil
}

// apply writes a multi-key change as one batch so a failure cannot leave
// the name, record and index keys disagreeing.
func (s *KVStore) apply(ctx context.Context, op string, ops ...kv.Op) error {
	return unavailable(op, s.kv.Apply(ctx, ops...))
}
