/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// MaxBatchWriteItems is the largest number of requests DynamoDB accepts in one
// BatchWriteItem call.
const MaxBatchWriteItems = 25

// BatchOptions configures bulk writes.
type BatchOptions struct {
	ChunkSize      int           // Requests per BatchWriteItem call, 1..25 (default: 25)
	MaxAttempts    int           // Calls per chunk including the first; <= 0 retries without limit (default: 8)
	BaseDelay      time.Duration // Backoff before the first resubmission (default: 50ms)
	MaxDelay       time.Duration // Backoff ceiling (default: 5s)
	MaxConcurrency int           // Chunks in flight at once; <= 0 submits all chunks together (default: 0)
}

// BatchOption is a functional option for configuring bulk writes
type BatchOption func(*BatchOptions)

// DefaultBatchOptions returns default bulk write options
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		ChunkSize:   MaxBatchWriteItems,
		MaxAttempts: 8,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Normalize clamps out-of-range values to usable ones.
func (o BatchOptions) Normalize() BatchOptions {
	if o.ChunkSize <= 0 || o.ChunkSize > MaxBatchWriteItems {
		o.ChunkSize = MaxBatchWriteItems
	}
	if o.BaseDelay < 0 {
		o.BaseDelay = 0
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	return o
}

// WithChunkSize sets the number of requests per call
func WithChunkSize(size int) BatchOption {
	return func(opts *BatchOptions) {
		opts.ChunkSize = size
	}
}

// WithMaxAttempts sets the number of calls allowed per chunk
func WithMaxAttempts(attempts int) BatchOption {
	return func(opts *BatchOptions) {
		opts.MaxAttempts = attempts
	}
}

// WithBaseDelay sets the first backoff delay
func WithBaseDelay(delay time.Duration) BatchOption {
	return func(opts *BatchOptions) {
		opts.BaseDelay = delay
	}
}

// WithMaxDelay sets the backoff ceiling
func WithMaxDelay(delay time.Duration) BatchOption {
	return func(opts *BatchOptions) {
		opts.MaxDelay = delay
	}
}

// WithMaxConcurrency bounds the number of chunks in flight
func WithMaxConcurrency(n int) BatchOption {
	return func(opts *BatchOptions) {
		opts.MaxConcurrency = n
	}
}
