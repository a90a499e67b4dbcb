/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/storagemodels"
)

// Stream pages through a query on a background goroutine and delivers typed results.
// Throttled pages are retried; any other failure is delivered as a last result carrying
// the error. The channel is closed when the query is exhausted, fails, or ctx is done.
//
// Options given here apply on top of the store's WithStreamOptions.
func (d *DynamodbDataStore[T]) Stream(ctx context.Context, params *storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range d.streamOptions {
		opt(&options)
	}
	for _, opt := range opts {
		opt(&options)
	}
	options = options.Normalize()

	input := d.queryInput(params)
	if input.Limit == nil && options.PageSize > 0 {
		input.Limit = aws.Int32(options.PageSize)
	}

	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)
	go d.streamPages(ctx, input, options, resultCh)
	return resultCh
}

func (d *DynamodbDataStore[T]) streamPages(
	ctx context.Context,
	input *dynamodb.QueryInput,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	send := func(r storagemodels.StreamResult[T]) bool {
		select {
		case resultCh <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var items, pages int
	for {
		out, err := d.queryWithRetry(ctx, input, options)
		if err != nil {
			if ctx.Err() == nil {
				send(storagemodels.StreamResult[T]{
					Error: fmt.Errorf("query of %s failed on page %d: %w", d.tableName, pages+1, err),
				})
			}
			return
		}
		pages++

		for _, item := range out.Items {
			var result storagemodels.StreamResult[T]
			if err := attributevalue.UnmarshalMap(item, &result.Item); err != nil {
				result = storagemodels.StreamResult[T]{
					Error: fmt.Errorf("failed to unmarshal item to type %T: %w", result.Item, err),
				}
			}
			if !send(result) || result.Error != nil {
				return
			}
			items++
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	d.logger.Debug("Query stream finished",
		zap.Int("items", items),
		zap.Int("pages", pages))
}

// queryWithRetry executes a query, retrying throttling and server errors with a linear
// backoff.
func (d *DynamodbDataStore[T]) queryWithRetry(
	ctx context.Context,
	input *dynamodb.QueryInput,
	options storagemodels.StreamOptions,
) (*dynamodb.QueryOutput, error) {
	for attempt := 0; ; attempt++ {
		out, err := d.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		if !isRetryableError(err) {
			return nil, err
		}
		if attempt >= options.MaxRetries {
			return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, err)
		}

		backoff := time.Duration(attempt+1) * options.RetryBackoff
		d.logger.Warn("Retrying throttled query page",
			zap.Int("attempt", attempt+1),
			zap.String("code", errorCode(err)),
			zap.Duration("backoff", backoff))
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

func (d *DynamodbDataStore[T]) queryInput(params *storagemodels.QueryParams) *dynamodb.QueryInput {
	tableName := params.TableName
	if tableName == "" {
		tableName = d.tableName
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    aws.String(params.KeyConditionExpression),
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		IndexName:                 params.IndexName,
		Limit:                     params.Limit,
		ScanIndexForward:          params.ScanIndexForward,
	}
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		internal   *types.InternalServerError
	)
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	switch errorCode(err) {
	case "ThrottlingException", "ServiceUnavailable":
		return true
	}

	var retryable interface{ RetryableError() bool }
	if errors.As(err, &retryable) {
		return retryable.RetryableError()
	}
	return false
}
