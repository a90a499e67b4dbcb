/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/storagemodels"
)

// KeySchema names the key attributes of the table a Go type is stored in.
type KeySchema struct {
	// PartitionKey is the hash key attribute (e.g. "userId").
	PartitionKey string
	// SortKey is the range key attribute (e.g. "todoId"); empty for hash-only tables.
	SortKey string
	// IndexSortKey is the range key of the table's user index (e.g. "createdAt"), if any.
	IndexSortKey string
}

var (
	keySchemaRegistry = make(map[reflect.Type]KeySchema)
	mu                sync.RWMutex
)

// RegisterKeySchema associates a Go type T with the key schema of its table.
func RegisterKeySchema[T any](schema KeySchema) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.Lock()
	defer mu.Unlock()
	keySchemaRegistry[t] = schema
}

// GetKeySchema retrieves the key schema for type T, if any.
func GetKeySchema[T any]() (KeySchema, bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.RLock()
	defer mu.RUnlock()
	s, ok := keySchemaRegistry[t]
	return s, ok
}

// MustKeySchema is GetKeySchema for callers that cannot proceed without one.
func MustKeySchema[T any]() (KeySchema, error) {
	s, ok := GetKeySchema[T]()
	if !ok {
		return KeySchema{}, fmt.Errorf("%w: %s", apperrors.ErrNoKeySchema, reflect.TypeOf((*T)(nil)).Elem())
	}
	return s, nil
}

// KeyOf extracts the key of an entity using the schema registered for T.
func KeyOf[T any](entity T) (storagemodels.Key, error) {
	schema, err := MustKeySchema[T]()
	if err != nil {
		return storagemodels.Key{}, err
	}
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return storagemodels.Key{}, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return schema.KeyFromItem(av)
}

// KeyFromItem reads the key attributes out of a marshaled item.
func (s KeySchema) KeyFromItem(item map[string]types.AttributeValue) (storagemodels.Key, error) {
	var key storagemodels.Key
	pk, err := stringAttr(item, s.PartitionKey)
	if err != nil {
		return key, err
	}
	key.Partition = pk
	if s.SortKey != "" {
		sk, err := stringAttr(item, s.SortKey)
		if err != nil {
			return key, err
		}
		key.Sort = sk
	}
	return key, nil
}

// Item renders a key as the attribute map DynamoDB expects in Get/Update/Delete calls.
func (s KeySchema) Item(key storagemodels.Key) (map[string]types.AttributeValue, error) {
	if key.Partition == "" {
		return nil, apperrors.NewValidationError(s.PartitionKey, "must not be empty")
	}
	item := map[string]types.AttributeValue{
		s.PartitionKey: &types.AttributeValueMemberS{Value: key.Partition},
	}
	if s.SortKey != "" {
		if key.Sort == "" {
			return nil, apperrors.NewValidationError(s.SortKey, "must not be empty")
		}
		item[s.SortKey] = &types.AttributeValueMemberS{Value: key.Sort}
	}
	return item, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name]
	if !ok {
		return "", apperrors.NewValidationError(name, "missing key attribute")
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok || s.Value == "" {
		return "", apperrors.NewValidationError(name, "key attribute must be a non-empty string")
	}
	return s.Value, nil
}
