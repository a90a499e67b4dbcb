/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an item is not found
	ErrNotFound = errors.New("item not found")

	// ErrAlreadyExists is returned when attempting to create an item that already exists
	ErrAlreadyExists = errors.New("item already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrNoKeySchema is returned when no key schema is registered for a type
	ErrNoKeySchema = errors.New("no key schema registered for type")

	// ErrStoreWrite is matched by every StoreWriteError
	ErrStoreWrite = errors.New("store write failed")

	// ErrRetriesExhausted is the cause of a StoreWriteError raised when unprocessed
	// items remain after the last allowed attempt
	ErrRetriesExhausted = errors.New("unprocessed items remain after final attempt")

	// ErrCancelled is matched by every CancelledError
	ErrCancelled = errors.New("operation cancelled")

	// ErrInsufficientBalance is returned when a debit would take a balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrForbidden is returned when a caller addresses another user's data
	ErrForbidden = errors.New("forbidden")
)

// NotFoundError represents an error when an item is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an item already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
	Err       error
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

func (e *ConditionFailedError) Unwrap() error {
	return e.Err
}

// StoreWriteError is returned when a bulk write call is rejected by the store, or when
// a chunk still has unprocessed items after its last allowed attempt. Items of other
// chunks may already have been applied.
type StoreWriteError struct {
	Table   string
	Chunk   int // 0-based index of the chunk in the original input
	Attempt int // 1-based attempt on which the chunk failed
	Pending int // items of the chunk not known to be written
	Err     error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("batch write to table %q failed on chunk %d attempt %d (%d items pending): %v",
		e.Table, e.Chunk, e.Attempt, e.Pending, e.Err)
}

func (e *StoreWriteError) Is(target error) bool {
	return target == ErrStoreWrite
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// CancelledError is returned when the caller's context ends before a bulk write settles.
type CancelledError struct {
	Table   string
	Pending int
	Err     error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("batch write to table %q cancelled with %d items pending: %v", e.Table, e.Pending, e.Err)
}

func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(itemType, key string) error {
	return &NotFoundError{Type: itemType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(itemType, key string) error {
	return &AlreadyExistsError{Type: itemType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string, cause error) error {
	return &ConditionFailedError{Operation: operation, Condition: condition, Err: cause}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsStoreWrite checks if an error is a bulk write failure
func IsStoreWrite(err error) bool {
	return errors.Is(err, ErrStoreWrite)
}

// IsCancelled checks if an error is a cancelled bulk write
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
