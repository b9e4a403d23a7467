// Copyright (c) 2025 Arc Engineering
// SPDX-License-Identifier: MIT

package deck

import "context"

// ItemStore is the durable per-collection item table used by the review
// engine. Implementations may use SQL, KV storage, or in-memory structures.
//
// Collection names are opaque: implementations must never splice them into
// query text.
type ItemStore interface {
	// Collection operations
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string) error
	RenameCollection(ctx context.Context, oldName, newName string) error
	DeleteCollection(ctx context.Context, name string) error

	// Item operations. ReadAll returns items in insertion order.
	ReadAll(ctx context.Context, collection string) ([]*Item, error)
	Get(ctx context.Context, collection string, id int64) (*Item, error)
	Insert(ctx context.Context, collection string, item *Item) (int64, error)

	// Update writes content and scheduling. A nil FirstStudiedAt clears the
	// stored value; a non-nil one is only written if none is stored yet.
	Update(ctx context.Context, collection string, id int64, item *Item) error
	Delete(ctx context.Context, collection string, id int64) error
}

// ValidateName rejects collection names no backend can hold.
func ValidateName(name string) error {
	if name == "" {
		return &Error{Kind: KindInvalidArgument, Op: "validate name", Err: errEmptyName}
	}
	return nil
}
