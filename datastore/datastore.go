/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"time"

	"github.com/im-danwu/earn-up/storagemodels"
)

// DataStore is the typed storage contract for one entity type stored in one table.
type DataStore[T any] interface {
	GetOne(ctx context.Context, key storagemodels.Key) (*T, error)

	Put(ctx context.Context, entity T) error

	// PutIfAbsent writes entity unless an item with the same key exists. It returns the
	// stored item and whether entity was the one written.
	PutIfAbsent(ctx context.Context, entity T) (T, bool, error)

	// Update sets the given attributes on an existing item.
	Update(ctx context.Context, key storagemodels.Key, updates map[string]any) error

	// UpdateIf is Update applied only while every attribute in expected still holds the
	// given value. A mismatch is a ConditionFailedError and leaves the item unchanged.
	UpdateIf(ctx context.Context, key storagemodels.Key, updates, expected map[string]any) error

	// Increment atomically adds delta to a numeric attribute and returns the new value.
	// A negative delta is refused when it would take the value below zero.
	Increment(ctx context.Context, key storagemodels.Key, attribute string, delta int64) (int64, error)

	Delete(ctx context.Context, key storagemodels.Key) error

	// ListByPartition returns every item of one partition, ordered by the index sort key
	// when the table has one.
	ListByPartition(ctx context.Context, partition string) ([]T, error)

	// ListCreatedBetween is ListByPartition restricted to items whose index sort key
	// falls within [from, to]. A zero bound leaves that side open.
	ListCreatedBetween(ctx context.Context, partition string, from, to time.Time) ([]T, error)

	// List returns the items of one partition selected by q, oldest first unless
	// q.Newest is set.
	List(ctx context.Context, partition string, q storagemodels.ListQuery) ([]T, error)

	// BatchPut writes all entities with bulk writes.
	BatchPut(ctx context.Context, entities []T) error
}
