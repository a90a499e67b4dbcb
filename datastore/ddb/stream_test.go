/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/im-danwu/earn-up/datastore/ddb/ddbtest"
	"github.com/im-danwu/earn-up/storagemodels"
)

func seededNoteStore(t *testing.T, n int, opts ...StoreOption) (*DynamodbDataStore[note], *ddbtest.Fake, *storagemodels.QueryParams) {
	t.Helper()
	fake := newNoteFake()
	store := newNoteStore(t, fake, opts...)
	for i := 1; i <= n; i++ {
		require.NoError(t, store.Put(context.Background(), noteAt("alice", i)))
	}
	params, err := store.QueryUser("alice").Build()
	require.NoError(t, err)
	return store, fake, params
}

// throttlingClient fails the first failures Query calls with a throughput error.
type throttlingClient struct {
	Client
	failures atomic.Int32
}

func (c *throttlingClient) Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	if c.failures.Add(-1) >= 0 {
		return nil, &types.ProvisionedThroughputExceededException{}
	}
	return c.Client.Query(ctx, params, optFns...)
}

func noteIDs(results []storagemodels.StreamResult[note]) []string {
	var ids []string
	for _, r := range results {
		ids = append(ids, r.Item.NoteID)
	}
	return ids
}

func drain(ch <-chan storagemodels.StreamResult[note]) []storagemodels.StreamResult[note] {
	var results []storagemodels.StreamResult[note]
	for r := range ch {
		results = append(results, r)
	}
	return results
}

func TestStreamWithOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("BufferSize", func(t *testing.T) {
		store, _, params := seededNoteStore(t, 5)

		results := drain(store.Stream(ctx, params, storagemodels.WithBufferSize(1)))
		for _, r := range results {
			require.NoError(t, r.Error)
		}
		assert.Equal(t, []string{"n01", "n02", "n03", "n04", "n05"}, noteIDs(results))
	})

	t.Run("PageSize", func(t *testing.T) {
		store, fake, params := seededNoteStore(t, 5)

		results := drain(store.Stream(ctx, params, storagemodels.WithPageSize(2)))
		assert.Len(t, results, 5)
		assert.Equal(t, 3, fake.Calls("Query"))
	})

	t.Run("QueryLimitWinsOverPageSize", func(t *testing.T) {
		store, fake, _ := seededNoteStore(t, 7)
		params, err := store.QueryUser("alice").WithLimit(3).Build()
		require.NoError(t, err)

		results := drain(store.Stream(ctx, params, storagemodels.WithPageSize(2)))
		assert.Len(t, results, 7)
		assert.Equal(t, 3, fake.Calls("Query"))
	})

	t.Run("StoreOptionsApplyToEveryStream", func(t *testing.T) {
		store, fake, params := seededNoteStore(t, 5, WithStreamOptions(storagemodels.WithPageSize(1)))

		assert.Len(t, drain(store.Stream(ctx, params)), 5)
		assert.Equal(t, 5, fake.Calls("Query"))

		assert.Len(t, drain(store.Stream(ctx, params, storagemodels.WithPageSize(10))), 5)
		assert.Equal(t, 6, fake.Calls("Query"))
	})

	t.Run("NegativeSettingsAreClamped", func(t *testing.T) {
		store, _, params := seededNoteStore(t, 3)

		results := drain(store.Stream(ctx, params,
			storagemodels.WithBufferSize(-1),
			storagemodels.WithPageSize(-5),
		))
		assert.Len(t, results, 3)
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		store, _, params := seededNoteStore(t, 10)
		cancelCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		received := 0
		for range store.Stream(cancelCtx, params, storagemodels.WithPageSize(1), storagemodels.WithBufferSize(0)) {
			received++
			if received == 1 {
				cancel()
			}
		}
		assert.Less(t, received, 10)
	})
}

func TestStreamErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("non-retryable error is delivered once", func(t *testing.T) {
		store, fake, params := seededNoteStore(t, 3)
		denied := &smithy.GenericAPIError{Code: "AccessDeniedException"}
		fake.WithError("Query", denied)

		results := drain(store.Stream(ctx, params, storagemodels.WithRetryBackoff(0)))
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Error, denied)
		assert.Equal(t, 1, fake.Calls("Query"))
	})

	t.Run("throttling is retried until MaxRetries", func(t *testing.T) {
		store, fake, params := seededNoteStore(t, 3)
		fake.WithError("Query", &types.ProvisionedThroughputExceededException{})

		results := drain(store.Stream(ctx, params,
			storagemodels.WithMaxRetries(2),
			storagemodels.WithRetryBackoff(0),
		))
		require.Len(t, results, 1)
		var throughput *types.ProvisionedThroughputExceededException
		assert.ErrorAs(t, results[0].Error, &throughput)
		assert.Equal(t, 3, fake.Calls("Query"))
	})

	t.Run("throttled page recovers", func(t *testing.T) {
		fake := newNoteFake()
		client := &throttlingClient{Client: fake}
		client.failures.Store(2)
		store := newNoteStore(t, client, WithStreamOptions(storagemodels.WithRetryBackoff(0)))
		for i := 1; i <= 3; i++ {
			require.NoError(t, store.Put(ctx, noteAt("alice", i)))
		}

		notes, err := store.ListByPartition(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, notes, 3)
		assert.Equal(t, 1, fake.Calls("Query"))
	})

	t.Run("undecodable item ends the stream", func(t *testing.T) {
		store, fake, params := seededNoteStore(t, 1)
		fake.Seed(notesTable, map[string]types.AttributeValue{
			"ownerId":   &types.AttributeValueMemberS{Value: "alice"},
			"noteId":    &types.AttributeValueMemberS{Value: "n02"},
			"createdAt": &types.AttributeValueMemberS{Value: noteAt("alice", 2).CreatedAt},
			"body":      &types.AttributeValueMemberBOOL{Value: true},
		})
		require.NoError(t, store.Put(ctx, noteAt("alice", 3)))

		results := drain(store.Stream(ctx, params))
		require.Len(t, results, 2)
		assert.NoError(t, results[0].Error)
		assert.Error(t, results[1].Error)
	})
}

func TestStreamRetryLogic(t *testing.T) {
	t.Run("RetryableError", func(t *testing.T) {
		tests := []struct {
			err  error
			want bool
		}{
			{err: &types.ProvisionedThroughputExceededException{}, want: true},
			{err: &types.RequestLimitExceeded{}, want: true},
			{err: &types.InternalServerError{}, want: true},
			{err: fmt.Errorf("page 3: %w", &types.ProvisionedThroughputExceededException{}), want: true},
			{err: &smithy.GenericAPIError{Code: "ThrottlingException"}, want: true},
			{err: &smithy.GenericAPIError{Code: "AccessDeniedException"}, want: false},
			{err: &types.ResourceNotFoundException{}, want: false},
			{err: fmt.Errorf("some other error"), want: false},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, isRetryableError(tt.err), "%v", tt.err)
		}
	})
}
