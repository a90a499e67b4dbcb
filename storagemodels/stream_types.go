/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// ListQuery selects the items of one partition by the time they were created.
type ListQuery struct {
	From time.Time // inclusive lower bound, open when zero
	To   time.Time // inclusive upper bound, open when zero
	// Newest returns the most recently created items first.
	Newest bool
	// Limit caps the number of items returned. Zero returns every match.
	Limit int
}

// StreamResult is one item read by a streaming query, or the error that ended the stream.
type StreamResult[T any] struct {
	Item  T
	Error error
}

// StreamOptions tunes how a streaming query pages through its results.
type StreamOptions struct {
	// BufferSize is the number of results read ahead of the consumer.
	BufferSize int
	// PageSize is the Limit of each Query call when the query sets none. Zero leaves
	// page sizing to DynamoDB.
	PageSize int32
	// MaxRetries is how often a throttled page is requested again.
	MaxRetries int
	// RetryBackoff is the wait unit between retries; retry n waits n units.
	RetryBackoff time.Duration
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:   100,
		PageSize:     100,
		MaxRetries:   3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// Normalize clamps negative settings to zero.
func (o StreamOptions) Normalize() StreamOptions {
	o.BufferSize = max(o.BufferSize, 0)
	o.PageSize = max(o.PageSize, 0)
	o.MaxRetries = max(o.MaxRetries, 0)
	o.RetryBackoff = max(o.RetryBackoff, 0)
	return o
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithPageSize sets the default DynamoDB page size
func WithPageSize(size int32) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithMaxRetries sets how often a throttled page is retried
func WithMaxRetries(retries int) StreamOption {
	return func(opts *StreamOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry wait unit
func WithRetryBackoff(backoff time.Duration) StreamOption {
	return func(opts *StreamOptions) {
		opts.RetryBackoff = backoff
	}
}
