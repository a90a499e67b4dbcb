/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/im-danwu/earn-up/datastore/mock"
	"github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/registry"
	"github.com/im-danwu/earn-up/storagemodels"
)

type TestEntity struct {
	OwnerID   string `dynamodbav:"ownerId"`
	ID        string `dynamodbav:"id"`
	CreatedAt string `dynamodbav:"createdAt"`
	Name      string `dynamodbav:"name"`
	Score     int64  `dynamodbav:"score"`
}

type unregisteredEntity struct {
	ID string `dynamodbav:"id"`
}

func init() {
	registry.RegisterKeySchema[TestEntity](registry.KeySchema{
		PartitionKey: "ownerId",
		SortKey:      "id",
		IndexSortKey: "createdAt",
	})
}

var epoch = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func entity(owner string, i int) TestEntity {
	return TestEntity{
		OwnerID:   owner,
		ID:        fmt.Sprintf("e%d", i),
		CreatedAt: storagemodels.Timestamp(epoch.Add(time.Duration(i) * time.Minute)),
		Name:      fmt.Sprintf("entity %d", i),
	}
}

func TestMockDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		store := mock.New[TestEntity]()
		e := entity("u1", 1)
		key := storagemodels.Key{Partition: "u1", Sort: "e1"}

		require.NoError(t, store.Put(ctx, e))

		got, err := store.GetOne(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, e, *got)

		require.NoError(t, store.Delete(ctx, key))
		_, err = store.GetOne(ctx, key)
		assert.True(t, errors.IsNotFound(err))

		assert.NoError(t, store.Delete(ctx, key))
	})

	t.Run("PutIfAbsent", func(t *testing.T) {
		store := mock.New[TestEntity]()
		e := entity("u1", 1)

		_, created, err := store.PutIfAbsent(ctx, e)
		require.NoError(t, err)
		assert.True(t, created)

		other := e
		other.Name = "other"
		stored, created, err := store.PutIfAbsent(ctx, other)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, e, stored)
	})

	t.Run("Update", func(t *testing.T) {
		store := mock.New[TestEntity]()
		require.NoError(t, store.Put(ctx, entity("u1", 1)))
		key := storagemodels.Key{Partition: "u1", Sort: "e1"}

		require.NoError(t, store.Update(ctx, key, map[string]any{"name": "renamed", "score": 3}))
		got, err := store.GetOne(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, int64(3), got.Score)

		err = store.Update(ctx, storagemodels.Key{Partition: "u1", Sort: "missing"}, map[string]any{"name": "x"})
		assert.True(t, errors.IsNotFound(err))

		assert.True(t, errors.IsValidationError(store.Update(ctx, key, map[string]any{"id": "e2"})))
		assert.True(t, errors.IsValidationError(store.Update(ctx, key, nil)))
	})

	t.Run("UpdateIf", func(t *testing.T) {
		store := mock.New[TestEntity]()
		require.NoError(t, store.Put(ctx, entity("u1", 1)))
		key := storagemodels.Key{Partition: "u1", Sort: "e1"}

		require.NoError(t, store.UpdateIf(ctx, key, map[string]any{"score": 7}, map[string]any{"score": 0}))

		err := store.UpdateIf(ctx, key, map[string]any{"name": "late"}, map[string]any{"score": 0})
		assert.True(t, errors.IsConditionFailed(err))
		got, err := store.GetOne(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "entity 1", got.Name)
		assert.Equal(t, int64(7), got.Score)

		err = store.UpdateIf(ctx, storagemodels.Key{Partition: "u1", Sort: "missing"}, map[string]any{"name": "x"}, nil)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("Increment", func(t *testing.T) {
		store := mock.New[TestEntity]()
		key := storagemodels.Key{Partition: "u1", Sort: "e1"}

		v, err := store.Increment(ctx, key, "score", 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), v)

		_, err = store.Increment(ctx, key, "score", -6)
		assert.True(t, errors.IsConditionFailed(err))

		v, err = store.Increment(ctx, key, "score", -5)
		require.NoError(t, err)
		assert.Equal(t, int64(0), v)

		got, err := store.GetOne(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.OwnerID)
		assert.Equal(t, int64(0), got.Score)
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		store := mock.New[TestEntity]()
		key := storagemodels.Key{Partition: "u1", Sort: "e1"}

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = store.Increment(ctx, key, "score", 2)
			}()
		}
		wg.Wait()

		got, err := store.GetOne(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.Score)
	})

	t.Run("Listing", func(t *testing.T) {
		store := mock.New[TestEntity]()
		for _, i := range []int{4, 2, 3, 1} {
			require.NoError(t, store.Put(ctx, entity("u1", i)))
		}
		require.NoError(t, store.Put(ctx, entity("u2", 9)))

		all, err := store.ListByPartition(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "e1", all[0].ID)
		assert.Equal(t, "e4", all[3].ID)

		some, err := store.ListCreatedBetween(ctx, "u1", epoch.Add(2*time.Minute), epoch.Add(3*time.Minute))
		require.NoError(t, err)
		assert.Len(t, some, 2)

		since, err := store.ListCreatedBetween(ctx, "u1", epoch.Add(4*time.Minute), time.Time{})
		require.NoError(t, err)
		assert.Len(t, since, 1)

		newest, err := store.List(ctx, "u1", storagemodels.ListQuery{From: epoch.Add(2 * time.Minute), Newest: true, Limit: 2})
		require.NoError(t, err)
		require.Len(t, newest, 2)
		assert.Equal(t, "e4", newest[0].ID)
		assert.Equal(t, "e3", newest[1].ID)
		assert.Equal(t, 1, store.Calls(mock.OpList))
	})

	t.Run("BatchPut", func(t *testing.T) {
		store := mock.New[TestEntity]()
		batch := []TestEntity{entity("u1", 1), entity("u1", 2), entity("u1", 3)}
		require.NoError(t, store.BatchPut(ctx, batch))
		assert.Equal(t, 3, store.Count())

		err := store.BatchPut(ctx, []TestEntity{entity("u1", 4), {OwnerID: "u1"}})
		assert.True(t, errors.IsValidationError(err))
		assert.Equal(t, 3, store.Count())

		store.Clear()
		assert.Equal(t, 0, store.Count())
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		store := mock.New[TestEntity]()

		putErr := errors.NewValidationError("name", "required")
		store.WithPutError(putErr)
		assert.Equal(t, putErr, store.Put(ctx, entity("u1", 1)))

		deleteErr := errors.NewConditionFailedError("delete", "version mismatch", nil)
		store.WithDeleteError(deleteErr)
		assert.Equal(t, deleteErr, store.Delete(ctx, storagemodels.Key{Partition: "u1", Sort: "e1"}))

		batchErr := &errors.StoreWriteError{Table: "t", Err: errors.ErrRetriesExhausted}
		store.WithError(mock.OpBatchPut, batchErr)
		assert.True(t, errors.IsStoreWrite(store.BatchPut(ctx, []TestEntity{entity("u1", 1)})))

		store.WithPutError(nil)
		assert.NoError(t, store.Put(ctx, entity("u1", 1)))
		assert.Equal(t, 2, store.Calls(mock.OpPut))
	})

	t.Run("UnregisteredType", func(t *testing.T) {
		store := mock.New[unregisteredEntity]()
		err := store.Put(ctx, unregisteredEntity{ID: "x"})
		assert.ErrorIs(t, err, errors.ErrNoKeySchema)
	})
}
