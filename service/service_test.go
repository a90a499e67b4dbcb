/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/im-danwu/earn-up/datastore"
	"github.com/im-danwu/earn-up/datastore/mock"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/service"
	"github.com/im-danwu/earn-up/storagemodels"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	todoStore    *mock.DataStore[models.TodoItem]
	listStore    *mock.DataStore[models.TaskList]
	rewardStore  *mock.DataStore[models.Reward]
	accountStore *mock.DataStore[models.Account]

	accounts *service.AccountService
	todos    *service.TodoService
	lists    *service.TaskListService
	rewards  *service.RewardService
}

// newFixture wires every service to fresh mock stores with a fixed clock and sequential ids.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	seq := 0
	opts := []service.Option{
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}

	f := &fixture{
		todoStore:    mock.New[models.TodoItem](),
		listStore:    mock.New[models.TaskList](),
		rewardStore:  mock.New[models.Reward](),
		accountStore: mock.New[models.Account](),
	}
	f.accounts = service.NewAccountService(f.accountStore, opts...)
	f.todos = service.NewTodoService(f.todoStore, f.accounts, opts...)
	f.lists = service.NewTaskListService(f.listStore, opts...)
	f.rewards = service.NewRewardService(f.rewardStore, f.accounts, opts...)
	return f
}

// lockstepStore holds each of the first n GetOne calls until all n have read, so that n
// concurrent callers start from the same item state.
type lockstepStore[T any] struct {
	datastore.DataStore[T]
	n     int32
	reads atomic.Int32
	ready sync.WaitGroup
}

func newLockstepStore[T any](inner datastore.DataStore[T], n int) *lockstepStore[T] {
	s := &lockstepStore[T]{DataStore: inner, n: int32(n)}
	s.ready.Add(n)
	return s
}

func (s *lockstepStore[T]) GetOne(ctx context.Context, key storagemodels.Key) (*T, error) {
	item, err := s.DataStore.GetOne(ctx, key)
	if s.reads.Add(1) <= s.n {
		s.ready.Done()
		s.ready.Wait()
	}
	return item, err
}

// concurrently runs fn n times in parallel and returns each call's error.
func concurrently(n int, fn func() error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn()
		}(i)
	}
	wg.Wait()
	return errs
}
