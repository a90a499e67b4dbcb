/*
Package errors provides semantic error types for the earn-up backend.

Sentinels are matched with errors.Is or the Is* helpers:

	var (
	    ErrNotFound            = errors.New("item not found")
	    ErrInvalidInput        = errors.New("invalid input")
	    ErrConditionFailed     = errors.New("condition check failed")
	    ErrStoreWrite          = errors.New("store write failed")
	    ErrCancelled           = errors.New("operation cancelled")
	    ErrInsufficientBalance = errors.New("insufficient balance")
	)

Bulk writes fail with a *StoreWriteError that names the table, the chunk and the
attempt, and unwraps to the store's own error:

	if err := writer.WriteAll(ctx, items); err != nil {
	    var swe *errors.StoreWriteError
	    if stderrors.As(err, &swe) {
	        log.Printf("chunk %d failed: %v", swe.Chunk, swe.Err)
	    }
	}

A cancelled context surfaces as a *CancelledError, which matches both ErrCancelled and
the context error it carries.
*/
package errors
