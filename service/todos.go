/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/datastore"
	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/storagemodels"
)

// TodoService manages todos and the points they earn.
type TodoService struct {
	todos    datastore.DataStore[models.TodoItem]
	accounts *AccountService
	logger   *zap.Logger
	now      Clock
	newID    IDGenerator
}

// NewTodoService creates a TodoService.
func NewTodoService(todos datastore.DataStore[models.TodoItem], accounts *AccountService, opts ...Option) *TodoService {
	o := buildOptions(opts)
	return &TodoService{
		todos:    todos,
		accounts: accounts,
		logger:   o.logger.Named("todos"),
		now:      o.now,
		newID:    o.newID,
	}
}

// List returns the user's todos, oldest first.
func (s *TodoService) List(ctx context.Context, userID string) ([]models.TodoItem, error) {
	items, err := s.todos.ListByPartition(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return items, nil
}

// ListCreatedBetween returns the user's todos created within [from, to]. Zero bounds are open.
func (s *TodoService) ListCreatedBetween(ctx context.Context, userID string, from, to time.Time) ([]models.TodoItem, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	items, err := s.todos.ListCreatedBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return items, nil
}

// Search returns the user's todos selected by q.
func (s *TodoService) Search(ctx context.Context, userID string, q storagemodels.ListQuery) ([]models.TodoItem, error) {
	if err := checkRange(q.From, q.To); err != nil {
		return nil, err
	}
	items, err := s.todos.List(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return items, nil
}

func checkRange(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperrors.NewValidationError("to", "must not be before from")
	}
	return nil
}

// Create stores a new, not yet done todo.
func (s *TodoService) Create(ctx context.Context, userID string, req models.CreateTodoRequest) (models.TodoItem, error) {
	if err := models.Validate(req); err != nil {
		return models.TodoItem{}, err
	}

	item := s.newTodo(userID, req, s.now())
	if err := s.todos.Put(ctx, item); err != nil {
		return models.TodoItem{}, fmt.Errorf("failed to create todo: %w", err)
	}

	s.logger.Info("Created todo", zap.String("userId", userID), zap.String("todoId", item.TodoID))
	return item, nil
}

// CreateMany stores many todos with bulk writes. It either returns every created todo
// or an error; on error some of the todos may already be stored.
func (s *TodoService) CreateMany(ctx context.Context, userID string, req models.CreateTodosRequest) ([]models.TodoItem, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]models.TodoItem, len(req.Items))
	for i, r := range req.Items {
		items[i] = s.newTodo(userID, r, now)
	}

	if err := s.todos.BatchPut(ctx, items); err != nil {
		s.logger.Error("Bulk todo creation failed",
			zap.String("userId", userID),
			zap.Int("items", len(items)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create %d todos: %w", len(items), err)
	}

	s.logger.Info("Created todos", zap.String("userId", userID), zap.Int("items", len(items)))
	return items, nil
}

func (s *TodoService) newTodo(userID string, req models.CreateTodoRequest, now time.Time) models.TodoItem {
	return models.TodoItem{
		UserID:     userID,
		TodoID:     s.newID(),
		CreatedAt:  models.Timestamp(now),
		Name:       req.Name,
		DueDate:    req.DueDate,
		Done:       false,
		Points:     req.Points,
		TaskListID: req.TaskListID,
	}
}

// Update replaces a todo's name, due date and done flag. Marking it done credits its
// points to the user; marking it not done again takes them back, which fails with
// ErrInsufficientBalance when they have been spent. The item update is conditioned on the
// done flag the payment was based on; when a concurrent update changed it, the payment is
// reversed and the update starts over from a fresh read.
func (s *TodoService) Update(ctx context.Context, userID, todoID string, req models.UpdateTodoRequest) (models.TodoItem, error) {
	if err := models.Validate(req); err != nil {
		return models.TodoItem{}, err
	}

	key := storagemodels.Key{Partition: userID, Sort: todoID}
	for attempt := 1; ; attempt++ {
		current, err := s.todos.GetOne(ctx, key)
		if err != nil {
			return models.TodoItem{}, err
		}

		revert := func() {}
		if req.Done != current.Done && current.Points > 0 {
			if req.Done {
				if _, err := s.accounts.Credit(ctx, userID, current.Points); err != nil {
					return models.TodoItem{}, err
				}
				revert = func() { s.compensate(ctx, userID, -current.Points) }
			} else {
				if _, err := s.accounts.Debit(ctx, userID, current.Points); err != nil {
					return models.TodoItem{}, err
				}
				revert = func() { s.compensate(ctx, userID, current.Points) }
			}
		}

		err = s.todos.UpdateIf(ctx, key, map[string]any{
			"name":    req.Name,
			"dueDate": req.DueDate,
			"done":    req.Done,
		}, map[string]any{"done": current.Done})
		if err == nil {
			updated := *current
			updated.Name, updated.DueDate, updated.Done = req.Name, req.DueDate, req.Done
			return updated, nil
		}

		revert()
		if apperrors.IsConditionFailed(err) && attempt < maxConflictAttempts {
			s.logger.Debug("Todo changed concurrently, retrying",
				zap.String("userId", userID),
				zap.String("todoId", todoID),
				zap.Int("attempt", attempt))
			continue
		}
		return models.TodoItem{}, fmt.Errorf("failed to update todo: %w", err)
	}
}

// compensate undoes a balance change whose todo update failed.
func (s *TodoService) compensate(ctx context.Context, userID string, delta int64) {
	var err error
	if delta > 0 {
		_, err = s.accounts.Credit(ctx, userID, delta)
	} else {
		_, err = s.accounts.Debit(ctx, userID, -delta)
	}
	if err != nil {
		s.logger.Error("Failed to revert balance change",
			zap.String("userId", userID),
			zap.Int64("delta", delta),
			zap.Error(err))
	}
}

// Delete removes a todo. Points it earned stay credited.
func (s *TodoService) Delete(ctx context.Context, userID, todoID string) error {
	if err := s.todos.Delete(ctx, storagemodels.Key{Partition: userID, Sort: todoID}); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}
