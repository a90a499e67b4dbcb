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
)

func TestAccountService(t *testing.T) {
	ctx := context.Background()

	t.Run("BalanceWithoutAccount", func(t *testing.T) {
		f := newFixture(t)
		account, err := f.accounts.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", account.UserID)
		assert.Equal(t, int64(0), account.Balance)
	})

	t.Run("CreditAndDebit", func(t *testing.T) {
		f := newFixture(t)

		balance, err := f.accounts.Credit(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), balance)

		balance, err = f.accounts.Debit(ctx, "u1", 4)
		require.NoError(t, err)
		assert.Equal(t, int64(6), balance)

		account, err := f.accounts.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(6), account.Balance)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.accounts.Credit(ctx, "u1", 3)
		require.NoError(t, err)

		_, err = f.accounts.Debit(ctx, "u1", 5)
		assert.ErrorIs(t, err, errors.ErrInsufficientBalance)

		account, err := f.accounts.Balance(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), account.Balance)
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.accounts.Credit(ctx, "u1", 7)
		require.NoError(t, err)

		balance, err := f.accounts.Debit(ctx, "u1", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(7), balance)
		assert.Equal(t, 1, f.accountStore.Calls(mock.OpIncrement))
	})

	t.Run("NegativeAmount", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.accounts.Credit(ctx, "u1", -1)
		assert.True(t, errors.IsValidationError(err))
		_, err = f.accounts.Debit(ctx, "u1", -1)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := newFixture(t)
		f.accountStore.WithError(mock.OpGetOne, assert.AnError)
		_, err := f.accounts.Balance(ctx, "u1")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
