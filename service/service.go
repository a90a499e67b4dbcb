/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxConflictAttempts bounds how often a points-changing update is retried after the item
// was modified between its read and its conditional write.
const maxConflictAttempts = 3

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns a new unique item id.
type IDGenerator func() string

// Option configures a service.
type Option func(*options)

type options struct {
	logger *zap.Logger
	now    Clock
	newID  IDGenerator
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.now = c
	}
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		o.newID = g
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
