/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/im-danwu/earn-up/datastore/mock"
	"github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/service"
	"github.com/im-danwu/earn-up/storagemodels"
)

func createReward(t *testing.T, f *fixture, cost int64) models.Reward {
	t.Helper()
	reward, err := f.rewards.Create(context.Background(), "u1", models.CreateRewardRequest{Name: "movie night", Cost: cost})
	require.NoError(t, err)
	return reward
}

func balance(t *testing.T, f *fixture) int64 {
	t.Helper()
	account, err := f.accounts.Balance(context.Background(), "u1")
	require.NoError(t, err)
	return account.Balance
}

func TestRewardService(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateListUpdateDelete", func(t *testing.T) {
		f := newFixture(t)
		reward := createReward(t, f, 20)
		assert.Equal(t, models.Reward{
			UserID:    "u1",
			RewardID:  "id-1",
			CreatedAt: "2024-06-01T09:30:00.000Z",
			Name:      "movie night",
			Cost:      20,
		}, reward)

		updated, err := f.rewards.Update(ctx, "u1", reward.RewardID, models.UpdateRewardRequest{Name: "cinema", Cost: 25})
		require.NoError(t, err)
		assert.Equal(t, "cinema", updated.Name)
		assert.Equal(t, int64(25), updated.Cost)

		rewards, err := f.rewards.List(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []models.Reward{updated}, rewards)

		require.NoError(t, f.rewards.Delete(ctx, "u1", reward.RewardID))
		rewards, err = f.rewards.List(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, rewards)
	})

	t.Run("Redeem", func(t *testing.T) {
		f := newFixture(t)
		reward := createReward(t, f, 20)
		_, err := f.accounts.Credit(ctx, "u1", 30)
		require.NoError(t, err)

		left, err := f.rewards.Redeem(ctx, "u1", reward.RewardID, true)
		require.NoError(t, err)
		assert.Equal(t, int64(10), left)

		stored, err := f.rewardStore.GetOne(ctx, storagemodels.Key{Partition: "u1", Sort: reward.RewardID})
		require.NoError(t, err)
		assert.True(t, stored.Redeemed)

		// Redeeming twice charges once.
		left, err = f.rewards.Redeem(ctx, "u1", reward.RewardID, true)
		require.NoError(t, err)
		assert.Equal(t, int64(10), left)

		left, err = f.rewards.Redeem(ctx, "u1", reward.RewardID, false)
		require.NoError(t, err)
		assert.Equal(t, int64(30), left)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		f := newFixture(t)
		reward := createReward(t, f, 20)
		_, err := f.accounts.Credit(ctx, "u1", 5)
		require.NoError(t, err)

		_, err = f.rewards.Redeem(ctx, "u1", reward.RewardID, true)
		assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
		assert.Equal(t, int64(5), balance(t, f))
		assert.Equal(t, 0, f.rewardStore.Calls(mock.OpUpdateIf))
	})

	t.Run("FailedUpdateRefunds", func(t *testing.T) {
		f := newFixture(t)
		reward := createReward(t, f, 20)
		_, err := f.accounts.Credit(ctx, "u1", 20)
		require.NoError(t, err)
		f.rewardStore.WithUpdateError(assert.AnError)

		_, err = f.rewards.Redeem(ctx, "u1", reward.RewardID, true)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, int64(20), balance(t, f))
	})

	t.Run("ConcurrentRedeemChargesOnce", func(t *testing.T) {
		f := newFixture(t)
		reward := createReward(t, f, 20)
		_, err := f.accounts.Credit(ctx, "u1", 50)
		require.NoError(t, err)
		rewards := service.NewRewardService(newLockstepStore[models.Reward](f.rewardStore, 2), f.accounts)

		errs := concurrently(2, func() error {
			_, err := rewards.Redeem(ctx, "u1", reward.RewardID, true)
			return err
		})
		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int64(30), balance(t, f))

		stored, err := f.rewardStore.GetOne(ctx, storagemodels.Key{Partition: "u1", Sort: reward.RewardID})
		require.NoError(t, err)
		assert.True(t, stored.Redeemed)
	})

	t.Run("MissingReward", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.rewards.Redeem(ctx, "u1", "missing", true)
		assert.True(t, errors.IsNotFound(err))

		_, err = f.rewards.Update(ctx, "u1", "missing", models.UpdateRewardRequest{Name: "x"})
		assert.True(t, errors.IsNotFound(err))
	})
}
