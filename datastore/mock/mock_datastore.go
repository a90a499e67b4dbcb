/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides mock implementations of the DataStore interface for testing
package mock

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/im-danwu/earn-up/datastore"
	"github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/registry"
	"github.com/im-danwu/earn-up/storagemodels"
)

// Operation names a DataStore method for error injection and call counting.
type Operation string

const (
	OpGetOne             Operation = "GetOne"
	OpPut                Operation = "Put"
	OpPutIfAbsent        Operation = "PutIfAbsent"
	OpUpdate             Operation = "Update"
	OpUpdateIf           Operation = "UpdateIf"
	OpIncrement          Operation = "Increment"
	OpDelete             Operation = "Delete"
	OpListByPartition    Operation = "ListByPartition"
	OpListCreatedBetween Operation = "ListCreatedBetween"
	OpList               Operation = "List"
	OpBatchPut           Operation = "BatchPut"
)

// DataStore is a mock implementation of datastore.DataStore[T] for testing. Entities are
// keyed by the schema registered for T and held in their marshaled form, so that Update
// and Increment behave like their DynamoDB counterparts.
type DataStore[T any] struct {
	mu       sync.RWMutex
	data     map[storagemodels.Key]map[string]types.AttributeValue
	errs     map[Operation]error
	calls    map[Operation]int
	typeName string
}

var _ datastore.DataStore[struct{}] = (*DataStore[struct{}])(nil)

// New creates a new mock DataStore
func New[T any]() *DataStore[T] {
	return &DataStore[T]{
		data:     make(map[storagemodels.Key]map[string]types.AttributeValue),
		errs:     make(map[Operation]error),
		calls:    make(map[Operation]int),
		typeName: reflect.TypeOf((*T)(nil)).Elem().Name(),
	}
}

// WithError makes every call of op return err. A nil err clears it.
func (m *DataStore[T]) WithError(op Operation, err error) *DataStore[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
	} else {
		m.errs[op] = err
	}
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	return m.WithError(OpPut, err)
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[T]) WithDeleteError(err error) *DataStore[T] {
	return m.WithError(OpDelete, err)
}

// WithUpdateError makes Update and UpdateIf operations return an error
func (m *DataStore[T]) WithUpdateError(err error) *DataStore[T] {
	m.WithError(OpUpdate, err)
	return m.WithError(OpUpdateIf, err)
}

// Calls returns how many times op was invoked.
func (m *DataStore[T]) Calls(op Operation) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// begin records a call and returns the injected error and key schema. The caller holds m.mu.
func (m *DataStore[T]) begin(op Operation) (registry.KeySchema, error) {
	m.calls[op]++
	if err := m.errs[op]; err != nil {
		return registry.KeySchema{}, err
	}
	return registry.MustKeySchema[T]()
}

// GetOne retrieves an entity by key
func (m *DataStore[T]) GetOne(ctx context.Context, key storagemodels.Key) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.begin(OpGetOne); err != nil {
		return nil, err
	}
	item, exists := m.data[key]
	if !exists {
		return nil, errors.NewNotFoundError(m.typeName, key.String())
	}
	return unmarshal[T](item)
}

// Put stores an entity
func (m *DataStore[T]) Put(ctx context.Context, entity T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpPut)
	if err != nil {
		return err
	}
	key, item, err := marshal(schema, entity)
	if err != nil {
		return err
	}
	m.data[key] = item
	return nil
}

// PutIfAbsent stores an entity unless its key is taken
func (m *DataStore[T]) PutIfAbsent(ctx context.Context, entity T) (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	schema, err := m.begin(OpPutIfAbsent)
	if err != nil {
		return zero, false, err
	}
	key, item, err := marshal(schema, entity)
	if err != nil {
		return zero, false, err
	}
	if existing, exists := m.data[key]; exists {
		stored, err := unmarshal[T](existing)
		if err != nil {
			return zero, false, err
		}
		return *stored, false, nil
	}
	m.data[key] = item
	return entity, true, nil
}

// Update sets attributes on an existing entity
func (m *DataStore[T]) Update(ctx context.Context, key storagemodels.Key, updates map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpUpdate)
	if err != nil {
		return err
	}
	return m.update(schema, key, updates, nil)
}

// UpdateIf sets attributes on an existing entity whose attributes still equal expected
func (m *DataStore[T]) UpdateIf(ctx context.Context, key storagemodels.Key, updates, expected map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpUpdateIf)
	if err != nil {
		return err
	}
	return m.update(schema, key, updates, expected)
}

func (m *DataStore[T]) update(schema registry.KeySchema, key storagemodels.Key, updates, expected map[string]any) error {
	if len(updates) == 0 {
		return errors.NewValidationError("updates", "no updates provided")
	}
	item, exists := m.data[key]
	if !exists {
		return errors.NewNotFoundError(m.typeName, key.String())
	}
	for field, value := range expected {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", field, err)
		}
		if !reflect.DeepEqual(item[field], av) {
			return errors.NewConditionFailedError("update", fmt.Sprintf("%v", expected), nil)
		}
	}

	updated := make(map[string]types.AttributeValue, len(item)+len(updates))
	for k, v := range item {
		updated[k] = v
	}
	for field, value := range updates {
		if field == schema.PartitionKey || field == schema.SortKey {
			return errors.NewValidationError(field, "key attributes cannot be updated")
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", field, err)
		}
		updated[field] = av
	}
	m.data[key] = updated
	return nil
}

// Increment adds delta to a numeric attribute, refusing to go below zero on a debit
func (m *DataStore[T]) Increment(ctx context.Context, key storagemodels.Key, attribute string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpIncrement)
	if err != nil {
		return 0, err
	}
	if attribute == "" || attribute == schema.PartitionKey || attribute == schema.SortKey {
		return 0, errors.NewValidationError(attribute, "not an incrementable attribute")
	}

	item, exists := m.data[key]
	var current int64
	if exists {
		if n, ok := item[attribute].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.ParseInt(n.Value, 10, 64)
		}
	}
	if delta < 0 && (!exists || current < -delta) {
		return 0, errors.NewConditionFailedError("increment", fmt.Sprintf("%s >= %d", attribute, -delta), nil)
	}

	updated := make(map[string]types.AttributeValue, len(item)+1)
	for k, v := range item {
		updated[k] = v
	}
	if !exists {
		keyItem, err := schema.Item(key)
		if err != nil {
			return 0, err
		}
		for k, v := range keyItem {
			updated[k] = v
		}
	}
	updated[attribute] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	m.data[key] = updated
	return current + delta, nil
}

// Delete removes an entity by key. Deleting a missing entity is not an error.
func (m *DataStore[T]) Delete(ctx context.Context, key storagemodels.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.begin(OpDelete); err != nil {
		return err
	}
	delete(m.data, key)
	return nil
}

// ListByPartition returns the entities of one partition ordered by index sort key
func (m *DataStore[T]) ListByPartition(ctx context.Context, partition string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpListByPartition)
	if err != nil {
		return nil, err
	}
	return m.list(schema, partition, storagemodels.ListQuery{})
}

// ListCreatedBetween returns the entities of one partition whose index sort key lies in
// [from, to]
func (m *DataStore[T]) ListCreatedBetween(ctx context.Context, partition string, from, to time.Time) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpListCreatedBetween)
	if err != nil {
		return nil, err
	}
	return m.list(schema, partition, storagemodels.ListQuery{From: from, To: to})
}

// List returns the entities of one partition selected by q
func (m *DataStore[T]) List(ctx context.Context, partition string, q storagemodels.ListQuery) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpList)
	if err != nil {
		return nil, err
	}
	return m.list(schema, partition, q)
}

func (m *DataStore[T]) list(schema registry.KeySchema, partition string, q storagemodels.ListQuery) ([]T, error) {
	var lo, hi string
	if !q.From.IsZero() {
		lo = storagemodels.Timestamp(q.From)
	}
	if !q.To.IsZero() {
		hi = storagemodels.Timestamp(q.To)
	}

	type entry struct {
		key  storagemodels.Key
		sort string
		item map[string]types.AttributeValue
	}
	var entries []entry
	for key, item := range m.data {
		if key.Partition != partition {
			continue
		}
		var sortValue string
		if schema.IndexSortKey != "" {
			if s, ok := item[schema.IndexSortKey].(*types.AttributeValueMemberS); ok {
				sortValue = s.Value
			}
			if (lo != "" && sortValue < lo) || (hi != "" && sortValue > hi) {
				continue
			}
		}
		entries = append(entries, entry{key: key, sort: sortValue, item: item})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].sort != entries[j].sort {
			return entries[i].sort < entries[j].sort
		}
		return entries[i].key.Sort < entries[j].key.Sort
	})
	if q.Newest {
		slices.Reverse(entries)
	}
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	results := make([]T, 0, len(entries))
	for _, e := range entries {
		v, err := unmarshal[T](e.item)
		if err != nil {
			return nil, err
		}
		results = append(results, *v)
	}
	return results, nil
}

// BatchPut stores every entity, or none when one of them has no key
func (m *DataStore[T]) BatchPut(ctx context.Context, entities []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schema, err := m.begin(OpBatchPut)
	if err != nil {
		return err
	}
	staged := make(map[storagemodels.Key]map[string]types.AttributeValue, len(entities))
	order := make([]storagemodels.Key, 0, len(entities))
	for _, entity := range entities {
		key, item, err := marshal(schema, entity)
		if err != nil {
			return err
		}
		staged[key] = item
		order = append(order, key)
	}
	for _, key := range order {
		m.data[key] = staged[key]
	}
	return nil
}

// Helper methods for testing

// Items returns every stored entity, in no particular order.
func (m *DataStore[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.data))
	for _, item := range m.data {
		if v, err := unmarshal[T](item); err == nil {
			out = append(out, *v)
		}
	}
	return out
}

// Count returns the number of stored entities
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes all data
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[storagemodels.Key]map[string]types.AttributeValue)
}

func marshal[T any](schema registry.KeySchema, entity T) (storagemodels.Key, map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return storagemodels.Key{}, nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	key, err := schema.KeyFromItem(item)
	if err != nil {
		return storagemodels.Key{}, nil, err
	}
	return key, item, nil
}

func unmarshal[T any](item map[string]types.AttributeValue) (*T, error) {
	result := new(T)
	if err := attributevalue.UnmarshalMap(item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}
