/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/storagemodels"
)

// BatchObserver is notified of every BatchWriteItem call a BatchWriter makes.
type BatchObserver interface {
	// ObserveBatchCall reports one call: the number of requests sent, how many came back
	// unprocessed, and the call error, if any.
	ObserveBatchCall(table string, sent, unprocessed int, err error)
	// ObserveBatchRetry reports that pending requests are about to be resubmitted.
	ObserveBatchRetry(table string, attempt, pending int)
}

type nopObserver struct{}

func (nopObserver) ObserveBatchCall(string, int, int, error) {}
func (nopObserver) ObserveBatchRetry(string, int, int)       {}

// BatchWriter writes any number of requests to one table with BatchWriteItem.
//
// Requests are split into chunks of at most ChunkSize, every chunk is submitted
// concurrently, and the items a call leaves unprocessed are resubmitted with exponential
// backoff until none remain. A call that fails outright is not retried here (the SDK
// retryer has already run) and fails the whole write. So does a chunk that still has
// unprocessed items after MaxAttempts calls.
//
// The first failure cancels the remaining chunks; items already written stay written.
type BatchWriter struct {
	client   BatchWriteClient
	table    string
	opts     storagemodels.BatchOptions
	logger   *zap.Logger
	observer BatchObserver
}

// NewBatchWriter creates a BatchWriter for table. The client must be safe for concurrent use.
func NewBatchWriter(client BatchWriteClient, table string, logger *zap.Logger, opts ...storagemodels.BatchOption) *BatchWriter {
	options := storagemodels.DefaultBatchOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchWriter{
		client:   client,
		table:    table,
		opts:     options.Normalize(),
		logger:   logger.With(zap.String("table", table)),
		observer: nopObserver{},
	}
}

// WithObserver sets the observer notified of each call.
func (w *BatchWriter) WithObserver(o BatchObserver) *BatchWriter {
	if o != nil {
		w.observer = o
	}
	return w
}

// Table returns the table the writer targets.
func (w *BatchWriter) Table() string {
	return w.table
}

// Options returns the effective options.
func (w *BatchWriter) Options() storagemodels.BatchOptions {
	return w.opts
}

// WriteAll puts every item. It returns nil only once all of them are written.
func (w *BatchWriter) WriteAll(ctx context.Context, items []map[string]types.AttributeValue) error {
	reqs := make([]types.WriteRequest, len(items))
	for i, item := range items {
		reqs[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
	}
	return w.WriteRequests(ctx, reqs)
}

// WriteRequests applies put and delete requests. An empty input makes no call.
func (w *BatchWriter) WriteRequests(ctx context.Context, reqs []types.WriteRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &apperrors.CancelledError{Table: w.table, Pending: len(reqs), Err: err}
	}

	chunks := chunkRequests(reqs, w.opts.ChunkSize)
	w.logger.Debug("Starting batch write",
		zap.Int("items", len(reqs)),
		zap.Int("chunks", len(chunks)))

	g, gctx := errgroup.WithContext(ctx)
	if w.opts.MaxConcurrency > 0 {
		g.SetLimit(w.opts.MaxConcurrency)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			return w.writeChunk(gctx, i, chunk)
		})
	}
	return g.Wait()
}

// writeChunk drives one chunk until it is fully applied or fails.
func (w *BatchWriter) writeChunk(ctx context.Context, index int, pending []types.WriteRequest) error {
	for attempt := 1; ; attempt++ {
		// A chunk queued behind MaxConcurrency may start after a sibling already failed.
		if err := ctx.Err(); err != nil {
			return &apperrors.CancelledError{Table: w.table, Pending: len(pending), Err: err}
		}
		out, err := w.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{w.table: pending},
		})
		if err != nil {
			w.observer.ObserveBatchCall(w.table, len(pending), 0, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return &apperrors.CancelledError{Table: w.table, Pending: len(pending), Err: ctxErr}
			}
			w.logger.Warn("Batch write call failed",
				zap.Int("chunk", index),
				zap.Int("attempt", attempt),
				zap.Int("pending", len(pending)),
				zap.Error(err))
			return &apperrors.StoreWriteError{
				Table:   w.table,
				Chunk:   index,
				Attempt: attempt,
				Pending: len(pending),
				Err:     err,
			}
		}

		var unprocessed []types.WriteRequest
		if out != nil {
			unprocessed = out.UnprocessedItems[w.table]
		}
		w.observer.ObserveBatchCall(w.table, len(pending), len(unprocessed), nil)
		if len(unprocessed) == 0 {
			return nil
		}

		if w.opts.MaxAttempts > 0 && attempt >= w.opts.MaxAttempts {
			w.logger.Warn("Unprocessed items remain after final attempt",
				zap.Int("chunk", index),
				zap.Int("attempts", attempt),
				zap.Int("unprocessed", len(unprocessed)))
			return &apperrors.StoreWriteError{
				Table:   w.table,
				Chunk:   index,
				Attempt: attempt,
				Pending: len(unprocessed),
				Err:     apperrors.ErrRetriesExhausted,
			}
		}

		delay := w.backoff(attempt)
		w.logger.Debug("Resubmitting unprocessed items",
			zap.Int("chunk", index),
			zap.Int("attempt", attempt+1),
			zap.Int("unprocessed", len(unprocessed)),
			zap.Duration("backoff", delay))
		w.observer.ObserveBatchRetry(w.table, attempt+1, len(unprocessed))

		if err := sleep(ctx, delay); err != nil {
			return &apperrors.CancelledError{Table: w.table, Pending: len(unprocessed), Err: err}
		}
		pending = unprocessed
	}
}

// backoff returns the wait before the call following attempt: BaseDelay doubled per
// completed attempt, capped at MaxDelay.
func (w *BatchWriter) backoff(attempt int) time.Duration {
	delay := w.opts.BaseDelay
	for i := 1; i < attempt && delay < w.opts.MaxDelay; i++ {
		delay *= 2
	}
	if delay > w.opts.MaxDelay {
		delay = w.opts.MaxDelay
	}
	return delay
}

// chunkRequests slices reqs, in order, into chunks of at most size.
func chunkRequests(reqs []types.WriteRequest, size int) [][]types.WriteRequest {
	chunks := make([][]types.WriteRequest, 0, (len(reqs)+size-1)/size)
	for start := 0; start < len(reqs); start += size {
		end := min(start+size, len(reqs))
		chunks = append(chunks, reqs[start:end:end])
	}
	return chunks
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
