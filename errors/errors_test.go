/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Todo", "123")

	assert.Equal(t, `Todo with key "123" not found`, err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("TaskList", "ABC")

	assert.Equal(t, `TaskList with key "ABC" already exists`, err.Error())
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.True(t, IsAlreadyExists(err))
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "dueDate",
			message:  "invalid format",
			expected: `validation failed for field "dueDate": invalid format`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)

			assert.Equal(t, tt.expected, err.Error())
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestConditionFailedError(t *testing.T) {
	cause := errors.New("ConditionalCheckFailedException")
	err := NewConditionFailedError("increment", "balance >= :v0", cause)

	assert.Equal(t, "condition check failed for increment operation: balance >= :v0", err.Error())
	assert.ErrorIs(t, err, ErrConditionFailed)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConditionFailed(err))
}

func TestStoreWriteError(t *testing.T) {
	cause := errors.New("AccessDeniedException: not authorized")
	err := &StoreWriteError{Table: "todos", Chunk: 1, Attempt: 1, Pending: 5, Err: cause}

	assert.Equal(t,
		`batch write to table "todos" failed on chunk 1 attempt 1 (5 items pending): AccessDeniedException: not authorized`,
		err.Error())
	assert.ErrorIs(t, err, ErrStoreWrite)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsStoreWrite(fmt.Errorf("create todos: %w", err)))

	exhausted := &StoreWriteError{Table: "todos", Attempt: 8, Pending: 2, Err: ErrRetriesExhausted}
	assert.ErrorIs(t, exhausted, ErrRetriesExhausted)
}

func TestCancelledError(t *testing.T) {
	err := &CancelledError{Table: "todos", Pending: 25, Err: context.Canceled}

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancelled(err))
	assert.False(t, IsStoreWrite(err))
}

func TestErrorWrapping(t *testing.T) {
	original := NewNotFoundError("Reward", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.True(t, IsNotFound(wrapped))
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrConditionFailed,
		ErrNoKeySchema,
		ErrStoreWrite,
		ErrRetriesExhausted,
		ErrCancelled,
		ErrInsufficientBalance,
		ErrForbidden,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
