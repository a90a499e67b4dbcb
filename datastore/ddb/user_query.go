/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

	"github.com/im-danwu/earn-up/storagemodels"
)

// UserQueryBuilder provides a fluent interface for querying one user's items, optionally
// restricted to a range of creation times.
type UserQueryBuilder[T any] struct {
	store     *DynamodbDataStore[T]
	userID    string
	rangeCond *expression.KeyConditionBuilder
	forward   *bool
	limit     *int32
	err       error
}

// QueryUser creates a query over the items of userID.
func (d *DynamodbDataStore[T]) QueryUser(userID string) *UserQueryBuilder[T] {
	return &UserQueryBuilder[T]{store: d, userID: userID}
}

func (q *UserQueryBuilder[T]) setRange(build func(expression.KeyBuilder) expression.KeyConditionBuilder) *UserQueryBuilder[T] {
	attr := q.store.schema.IndexSortKey
	if attr == "" {
		q.err = fmt.Errorf("table %s has no index sort key to range over", q.store.tableName)
		return q
	}
	cond := build(expression.Key(attr))
	q.rangeCond = &cond
	return q
}

// CreatedSince keeps items created at or after t.
func (q *UserQueryBuilder[T]) CreatedSince(t time.Time) *UserQueryBuilder[T] {
	return q.setRange(func(k expression.KeyBuilder) expression.KeyConditionBuilder {
		return k.GreaterThanEqual(expression.Value(storagemodels.Timestamp(t)))
	})
}

// CreatedUntil keeps items created at or before t.
func (q *UserQueryBuilder[T]) CreatedUntil(t time.Time) *UserQueryBuilder[T] {
	return q.setRange(func(k expression.KeyBuilder) expression.KeyConditionBuilder {
		return k.LessThanEqual(expression.Value(storagemodels.Timestamp(t)))
	})
}

// CreatedBetween keeps items created within [start, end].
func (q *UserQueryBuilder[T]) CreatedBetween(start, end time.Time) *UserQueryBuilder[T] {
	if end.Before(start) {
		q.err = fmt.Errorf("range end %s is before start %s", end, start)
		return q
	}
	return q.setRange(func(k expression.KeyBuilder) expression.KeyConditionBuilder {
		return k.Between(expression.Value(storagemodels.Timestamp(start)), expression.Value(storagemodels.Timestamp(end)))
	})
}

// Descending returns the newest items first.
func (q *UserQueryBuilder[T]) Descending() *UserQueryBuilder[T] {
	q.forward = aws.Bool(false)
	return q
}

// WithLimit sets the page size. Collect bounds the total separately.
func (q *UserQueryBuilder[T]) WithLimit(limit int32) *UserQueryBuilder[T] {
	q.limit = aws.Int32(limit)
	return q
}

// Build constructs the final query parameters
func (q *UserQueryBuilder[T]) Build() (*storagemodels.QueryParams, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	keyCond := expression.Key(q.store.schema.PartitionKey).Equal(expression.Value(q.userID))
	if q.rangeCond != nil {
		if q.store.indexName == "" {
			return nil, fmt.Errorf("table %s has no user index configured for range queries", q.store.tableName)
		}
		keyCond = expression.KeyAnd(keyCond, *q.rangeCond)
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	params := &storagemodels.QueryParams{
		TableName:                 q.store.tableName,
		KeyConditionExpression:    aws.ToString(expr.KeyCondition()),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     q.limit,
		ScanIndexForward:          q.forward,
	}
	if q.store.indexName != "" {
		params.IndexName = aws.String(q.store.indexName)
	}
	return params, nil
}

// Stream executes the query as a stream
func (q *UserQueryBuilder[T]) Stream(ctx context.Context, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	params, err := q.Build()
	if err != nil {
		ch := make(chan storagemodels.StreamResult[T], 1)
		ch <- storagemodels.StreamResult[T]{
			Error: fmt.Errorf("failed to build query: %w", err),
		}
		close(ch)
		return ch
	}
	return q.store.Stream(ctx, params, opts...)
}

// Collect drains Stream into a slice, stopping after limit items when limit is positive.
// The first error ends the read and no partial result is returned.
func (q *UserQueryBuilder[T]) Collect(ctx context.Context, limit int, opts ...storagemodels.StreamOption) ([]T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var items []T
	for result := range q.Stream(ctx, opts...) {
		if result.Error != nil {
			return nil, result.Error
		}
		items = append(items, result.Item)
		if limit > 0 && len(items) >= limit {
			return items, nil
		}
	}
	// The stream closes silently when ctx ends mid-query.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
