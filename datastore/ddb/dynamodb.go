/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/datastore"
	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/registry"
	"github.com/im-danwu/earn-up/storagemodels"
)

// DynamodbDataStore implements datastore.DataStore[T] on one DynamoDB table whose key
// schema is registered for T.
type DynamodbDataStore[T any] struct {
	client    Client
	tableName string
	indexName string
	schema    registry.KeySchema
	typeName  string
	writer    *BatchWriter
	logger    *zap.Logger

	streamOptions []storagemodels.StreamOption
}

var _ datastore.DataStore[struct{}] = (*DynamodbDataStore[struct{}])(nil)

// StoreOption configures a DynamodbDataStore.
type StoreOption func(*storeSettings)

type storeSettings struct {
	indexName    string
	logger       *zap.Logger
	observer     BatchObserver
	batchOptions []storagemodels.BatchOption
	streamOpts   []storagemodels.StreamOption
}

// WithIndex makes partition listings and time range queries read from the named index,
// whose range key is the schema's IndexSortKey.
func WithIndex(name string) StoreOption {
	return func(s *storeSettings) {
		s.indexName = name
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *storeSettings) {
		s.logger = logger
	}
}

// WithBatchObserver reports the store's bulk write calls to o.
func WithBatchObserver(o BatchObserver) StoreOption {
	return func(s *storeSettings) {
		s.observer = o
	}
}

// WithBatchOptions tunes the store's bulk writes.
func WithBatchOptions(opts ...storagemodels.BatchOption) StoreOption {
	return func(s *storeSettings) {
		s.batchOptions = append(s.batchOptions, opts...)
	}
}

// WithStreamOptions tunes the paging and throttle retry of the store's queries.
func WithStreamOptions(opts ...storagemodels.StreamOption) StoreOption {
	return func(s *storeSettings) {
		s.streamOpts = append(s.streamOpts, opts...)
	}
}

// NewDynamodbDataStore constructs a DynamodbDataStore for type T. T must have a
// registered key schema.
func NewDynamodbDataStore[T any](client Client, tableName string, opts ...StoreOption) (*DynamodbDataStore[T], error) {
	if tableName == "" {
		return nil, apperrors.NewValidationError("tableName", "must not be empty")
	}
	schema, err := registry.MustKeySchema[T]()
	if err != nil {
		return nil, err
	}

	var settings storeSettings
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.logger == nil {
		settings.logger = zap.NewNop()
	}

	return &DynamodbDataStore[T]{
		client:    client,
		tableName: tableName,
		indexName: settings.indexName,
		schema:    schema,
		typeName:  reflect.TypeOf((*T)(nil)).Elem().Name(),
		writer: NewBatchWriter(client, tableName, settings.logger, settings.batchOptions...).
			WithObserver(settings.observer),
		logger:        settings.logger.With(zap.String("table", tableName)),
		streamOptions: settings.streamOpts,
	}, nil
}

// TableName returns the table the store reads and writes.
func (d *DynamodbDataStore[T]) TableName() string {
	return d.tableName
}

// GetOne retrieves a single item. It returns a NotFoundError when there is none.
func (d *DynamodbDataStore[T]) GetOne(ctx context.Context, key storagemodels.Key) (*T, error) {
	keyMap, err := d.schema.Item(key)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       keyMap,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFoundError(d.typeName, key.String())
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// Put stores entity, replacing any item with the same key.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	av, err := d.marshal(entity)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// PutIfAbsent stores entity only when no item has its key, in a single conditional put.
// When one does, the stored item is returned with false.
func (d *DynamodbDataStore[T]) PutIfAbsent(ctx context.Context, entity T) (T, bool, error) {
	var zero T
	av, err := d.marshal(entity)
	if err != nil {
		return zero, false, err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(d.schema.PartitionKey))).
		Build()
	if err != nil {
		return zero, false, fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err == nil {
		return entity, true, nil
	}
	if !isConditionalCheckFailed(err) {
		return zero, false, fmt.Errorf("PutItem failed: %w", err)
	}

	key, err := d.schema.KeyFromItem(av)
	if err != nil {
		return zero, false, err
	}
	existing, err := d.GetOne(ctx, key)
	if err != nil {
		return zero, false, err
	}
	return *existing, false, nil
}

// Update sets each attribute in updates on the item at key. Key attributes cannot be
// updated, and the item must exist.
func (d *DynamodbDataStore[T]) Update(ctx context.Context, key storagemodels.Key, updates map[string]any) error {
	return d.update(ctx, key, updates, nil)
}

// UpdateIf is Update guarded by an equality condition on each attribute of expected.
// When the item exists but no longer matches, a ConditionFailedError is returned.
func (d *DynamodbDataStore[T]) UpdateIf(ctx context.Context, key storagemodels.Key, updates, expected map[string]any) error {
	return d.update(ctx, key, updates, expected)
}

func (d *DynamodbDataStore[T]) update(ctx context.Context, key storagemodels.Key, updates, expected map[string]any) error {
	if len(updates) == 0 {
		return apperrors.NewValidationError("updates", "no updates provided")
	}
	keyMap, err := d.schema.Item(key)
	if err != nil {
		return err
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		if _, isKey := keyMap[field]; isKey {
			return apperrors.NewValidationError(field, "key attributes cannot be updated")
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var update expression.UpdateBuilder
	for _, field := range fields {
		update = update.Set(expression.Name(field), expression.Value(updates[field]))
	}

	condition := expression.AttributeExists(expression.Name(d.schema.PartitionKey))
	guarded := make([]string, 0, len(expected))
	for field := range expected {
		guarded = append(guarded, field)
	}
	sort.Strings(guarded)
	for _, field := range guarded {
		condition = condition.And(expression.Name(field).Equal(expression.Value(expected[field])))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       keyMap,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err == nil {
		return nil
	}
	if !isConditionalCheckFailed(err) {
		return fmt.Errorf("UpdateItem failed: %w", err)
	}
	if len(expected) == 0 {
		return apperrors.NewNotFoundError(d.typeName, key.String())
	}
	// The condition covers both a missing item and a stale one; only a read tells them apart.
	if _, getErr := d.GetOne(ctx, key); getErr != nil {
		return getErr
	}
	return apperrors.NewConditionFailedError("update", fmt.Sprintf("%v", expected), err)
}

// Increment adds delta to a numeric attribute with an atomic ADD, creating the item and
// the attribute as needed. A negative delta is conditioned on the current value covering
// it; when it does not, a ConditionFailedError is returned and nothing changes.
func (d *DynamodbDataStore[T]) Increment(ctx context.Context, key storagemodels.Key, attribute string, delta int64) (int64, error) {
	keyMap, err := d.schema.Item(key)
	if err != nil {
		return 0, err
	}
	if _, isKey := keyMap[attribute]; isKey || attribute == "" {
		return 0, apperrors.NewValidationError(attribute, "not an incrementable attribute")
	}

	builder := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name(attribute), expression.Value(delta)))
	condition := ""
	if delta < 0 {
		condition = fmt.Sprintf("%s >= %d", attribute, -delta)
		builder = builder.WithCondition(expression.Name(attribute).GreaterThanEqual(expression.Value(-delta)))
	}
	expr, err := builder.Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build update expression: %w", err)
	}

	out, err := d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       keyMap,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return 0, apperrors.NewConditionFailedError("increment", condition, err)
		}
		return 0, fmt.Errorf("UpdateItem failed: %w", err)
	}

	var value int64
	if attr, ok := out.Attributes[attribute]; ok {
		if err := attributevalue.Unmarshal(attr, &value); err != nil {
			return 0, fmt.Errorf("failed to unmarshal %s: %w", attribute, err)
		}
	}
	return value, nil
}

// Delete removes the item at key. Deleting a missing item is not an error.
func (d *DynamodbDataStore[T]) Delete(ctx context.Context, key storagemodels.Key) error {
	keyMap, err := d.schema.Item(key)
	if err != nil {
		return err
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       keyMap,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// ListByPartition returns every item of partition, following pagination.
func (d *DynamodbDataStore[T]) ListByPartition(ctx context.Context, partition string) ([]T, error) {
	return d.List(ctx, partition, storagemodels.ListQuery{})
}

// ListCreatedBetween returns the items of partition whose index sort key lies within
// [from, to], following pagination. Zero bounds are open.
func (d *DynamodbDataStore[T]) ListCreatedBetween(ctx context.Context, partition string, from, to time.Time) ([]T, error) {
	return d.List(ctx, partition, storagemodels.ListQuery{From: from, To: to})
}

// List reads the items of partition selected by q through Stream, so throttled pages
// are retried.
func (d *DynamodbDataStore[T]) List(ctx context.Context, partition string, q storagemodels.ListQuery) ([]T, error) {
	query := d.QueryUser(partition)
	switch {
	case !q.From.IsZero() && !q.To.IsZero():
		query.CreatedBetween(q.From, q.To)
	case !q.From.IsZero():
		query.CreatedSince(q.From)
	case !q.To.IsZero():
		query.CreatedUntil(q.To)
	}
	if q.Newest {
		query.Descending()
	}
	if q.Limit > 0 {
		query.WithLimit(int32(min(q.Limit, math.MaxInt32)))
	}
	return query.Collect(ctx, q.Limit)
}

// BatchPut writes entities with BatchWriteItem, in chunks, retrying unprocessed items.
func (d *DynamodbDataStore[T]) BatchPut(ctx context.Context, entities []T) error {
	items := make([]map[string]types.AttributeValue, 0, len(entities))
	for _, entity := range entities {
		av, err := d.marshal(entity)
		if err != nil {
			return err
		}
		items = append(items, av)
	}
	return d.writer.WriteAll(ctx, items)
}

// marshal converts entity to an item and checks that its key attributes are present.
func (d *DynamodbDataStore[T]) marshal(entity T) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	if _, err := d.schema.KeyFromItem(av); err != nil {
		return nil, err
	}
	return av, nil
}

func isConditionalCheckFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

// errorCode returns the AWS error code carried by err, if any.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
