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

// AccountService keeps each user's point balance.
type AccountService struct {
	accounts datastore.DataStore[models.Account]
	logger   *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(accounts datastore.DataStore[models.Account], opts ...Option) *AccountService {
	o := buildOptions(opts)
	return &AccountService{
		accounts: accounts,
		logger:   o.logger.Named("accounts"),
	}
}

// Balance returns the user's account. A user without an account record has a zero balance.
func (s *AccountService) Balance(ctx context.Context, userID string) (models.Account, error) {
	account, err := s.accounts.GetOne(ctx, storagemodels.Key{Partition: userID})
	if apperrors.IsNotFound(err) {
		return models.Account{UserID: userID}, nil
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to read balance: %w", err)
	}
	return *account, nil
}

// Credit adds amount points and returns the new balance.
func (s *AccountService) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, apperrors.NewValidationError("amount", "must not be negative")
	}
	if amount == 0 {
		account, err := s.Balance(ctx, userID)
		return account.Balance, err
	}

	balance, err := s.accounts.Increment(ctx, storagemodels.Key{Partition: userID}, models.BalanceAttribute, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit %d points: %w", amount, err)
	}
	s.logger.Debug("Credited points",
		zap.String("userId", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))
	return balance, nil
}

// Debit removes amount points and returns the new balance. It fails with
// ErrInsufficientBalance, leaving the balance unchanged, when the balance is short.
func (s *AccountService) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, apperrors.NewValidationError("amount", "must not be negative")
	}
	if amount == 0 {
		account, err := s.Balance(ctx, userID)
		return account.Balance, err
	}

	balance, err := s.accounts.Increment(ctx, storagemodels.Key{Partition: userID}, models.BalanceAttribute, -amount)
	if apperrors.IsConditionFailed(err) {
		return 0, fmt.Errorf("%w: cannot spend %d points", apperrors.ErrInsufficientBalance, amount)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit %d points: %w", amount, err)
	}
	s.logger.Debug("Debited points",
		zap.String("userId", userID),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))
	return balance, nil
}
