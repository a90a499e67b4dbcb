/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/datastore"
	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/storagemodels"
)

// RewardService manages rewards and spends points on them.
type RewardService struct {
	rewards  datastore.DataStore[models.Reward]
	accounts *AccountService
	logger   *zap.Logger
	now      Clock
	newID    IDGenerator
}

// NewRewardService creates a RewardService.
func NewRewardService(rewards datastore.DataStore[models.Reward], accounts *AccountService, opts ...Option) *RewardService {
	o := buildOptions(opts)
	return &RewardService{
		rewards:  rewards,
		accounts: accounts,
		logger:   o.logger.Named("rewards"),
		now:      o.now,
		newID:    o.newID,
	}
}

// List returns the user's rewards, oldest first.
func (s *RewardService) List(ctx context.Context, userID string) ([]models.Reward, error) {
	rewards, err := s.rewards.ListByPartition(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// Create stores a new, unredeemed reward.
func (s *RewardService) Create(ctx context.Context, userID string, req models.CreateRewardRequest) (models.Reward, error) {
	if err := models.Validate(req); err != nil {
		return models.Reward{}, err
	}

	reward := models.Reward{
		UserID:    userID,
		RewardID:  s.newID(),
		CreatedAt: models.Timestamp(s.now()),
		Name:      req.Name,
		Cost:      req.Cost,
	}
	if err := s.rewards.Put(ctx, reward); err != nil {
		return models.Reward{}, fmt.Errorf("failed to create reward: %w", err)
	}
	s.logger.Info("Created reward", zap.String("userId", userID), zap.String("rewardId", reward.RewardID))
	return reward, nil
}

// Update sets a reward's name and cost. The cost of a redeemed reward has already been
// paid and is not adjusted.
func (s *RewardService) Update(ctx context.Context, userID, rewardID string, req models.UpdateRewardRequest) (models.Reward, error) {
	if err := models.Validate(req); err != nil {
		return models.Reward{}, err
	}

	key := storagemodels.Key{Partition: userID, Sort: rewardID}
	if err := s.rewards.Update(ctx, key, map[string]any{"name": req.Name, "cost": req.Cost}); err != nil {
		return models.Reward{}, err
	}
	reward, err := s.rewards.GetOne(ctx, key)
	if err != nil {
		return models.Reward{}, err
	}
	return *reward, nil
}

// Delete removes a reward.
func (s *RewardService) Delete(ctx context.Context, userID, rewardID string) error {
	if err := s.rewards.Delete(ctx, storagemodels.Key{Partition: userID, Sort: rewardID}); err != nil {
		return fmt.Errorf("failed to delete reward: %w", err)
	}
	return nil
}

// Redeem marks a reward redeemed, paying its cost, or unredeemed, refunding it, and
// returns the resulting balance. Setting the state a reward is already in changes nothing.
// A payment whose reward changed state concurrently is reversed and the redemption is
// evaluated again.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID string, redeemed bool) (int64, error) {
	key := storagemodels.Key{Partition: userID, Sort: rewardID}
	for attempt := 1; ; attempt++ {
		reward, err := s.rewards.GetOne(ctx, key)
		if err != nil {
			return 0, err
		}
		if reward.Redeemed == redeemed {
			account, err := s.accounts.Balance(ctx, userID)
			return account.Balance, err
		}

		var balance int64
		if redeemed {
			balance, err = s.accounts.Debit(ctx, userID, reward.Cost)
		} else {
			balance, err = s.accounts.Credit(ctx, userID, reward.Cost)
		}
		if err != nil {
			return 0, err
		}

		err = s.rewards.UpdateIf(ctx, key,
			map[string]any{"redeemed": redeemed},
			map[string]any{"redeemed": reward.Redeemed})
		if err == nil {
			s.logger.Info("Reward redemption changed",
				zap.String("userId", userID),
				zap.String("rewardId", rewardID),
				zap.Bool("redeemed", redeemed),
				zap.Int64("balance", balance))
			return balance, nil
		}

		s.revert(ctx, userID, reward.Cost, redeemed)
		if apperrors.IsConditionFailed(err) && attempt < maxConflictAttempts {
			continue
		}
		return 0, fmt.Errorf("failed to update reward: %w", err)
	}
}

// revert undoes the payment or refund of a redemption whose reward update failed.
func (s *RewardService) revert(ctx context.Context, userID string, cost int64, redeemed bool) {
	var err error
	if redeemed {
		_, err = s.accounts.Credit(ctx, userID, cost)
	} else {
		_, err = s.accounts.Debit(ctx, userID, cost)
	}
	if err != nil {
		s.logger.Error("Failed to revert redemption payment",
			zap.String("userId", userID),
			zap.Int64("cost", cost),
			zap.Error(err))
	}
}
