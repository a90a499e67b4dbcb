/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/datastore"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/storagemodels"
)

// TaskListService manages task lists.
type TaskListService struct {
	lists  datastore.DataStore[models.TaskList]
	logger *zap.Logger
	now    Clock
	newID  IDGenerator
}

// NewTaskListService creates a TaskListService.
func NewTaskListService(lists datastore.DataStore[models.TaskList], opts ...Option) *TaskListService {
	o := buildOptions(opts)
	return &TaskListService{
		lists:  lists,
		logger: o.logger.Named("tasklists"),
		now:    o.now,
		newID:  o.newID,
	}
}

// Get returns one task list.
func (s *TaskListService) Get(ctx context.Context, userID, taskListID string) (models.TaskList, error) {
	list, err := s.lists.GetOne(ctx, storagemodels.Key{Partition: userID, Sort: taskListID})
	if err != nil {
		return models.TaskList{}, err
	}
	return *list, nil
}

// List returns the user's task lists, oldest first.
func (s *TaskListService) List(ctx context.Context, userID string) ([]models.TaskList, error) {
	lists, err := s.lists.ListByPartition(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}
	return lists, nil
}

// Create stores a new task list, under the requested id when one is given.
func (s *TaskListService) Create(ctx context.Context, userID string, req models.CreateTaskListRequest) (models.TaskList, error) {
	if err := models.Validate(req); err != nil {
		return models.TaskList{}, err
	}

	list := s.newTaskList(userID, req.TaskListID, req)
	if err := s.lists.Put(ctx, list); err != nil {
		return models.TaskList{}, fmt.Errorf("failed to create task list: %w", err)
	}
	s.logger.Info("Created task list", zap.String("userId", userID), zap.String("taskListId", list.TaskListID))
	return list, nil
}

// Upsert creates the task list taskListID unless it exists. It returns the stored list
// and whether it was created by this call.
func (s *TaskListService) Upsert(ctx context.Context, userID, taskListID string, req models.CreateTaskListRequest) (models.TaskList, bool, error) {
	if err := models.Validate(req); err != nil {
		return models.TaskList{}, false, err
	}

	list, created, err := s.lists.PutIfAbsent(ctx, s.newTaskList(userID, taskListID, req))
	if err != nil {
		return models.TaskList{}, false, fmt.Errorf("failed to upsert task list: %w", err)
	}
	if created {
		s.logger.Info("Created task list", zap.String("userId", userID), zap.String("taskListId", taskListID))
	}
	return list, created, nil
}

func (s *TaskListService) newTaskList(userID, taskListID string, req models.CreateTaskListRequest) models.TaskList {
	if taskListID == "" {
		taskListID = s.newID()
	}
	return models.TaskList{
		UserID:     userID,
		TaskListID: taskListID,
		CreatedAt:  models.Timestamp(s.now()),
		Title:      req.Title,
		SyncedAt:   req.SyncedAt,
	}
}

// Update sets a task list's title and sync time and returns the updated list.
func (s *TaskListService) Update(ctx context.Context, userID, taskListID string, req models.UpdateTaskListRequest) (models.TaskList, error) {
	if err := models.Validate(req); err != nil {
		return models.TaskList{}, err
	}

	key := storagemodels.Key{Partition: userID, Sort: taskListID}
	err := s.lists.Update(ctx, key, map[string]any{
		"title":    req.Title,
		"syncedAt": req.SyncedAt,
	})
	if err != nil {
		return models.TaskList{}, err
	}
	return s.Get(ctx, userID, taskListID)
}

// Delete removes a task list. Its todos are kept.
func (s *TaskListService) Delete(ctx context.Context, userID, taskListID string) error {
	if err := s.lists.Delete(ctx, storagemodels.Key{Partition: userID, Sort: taskListID}); err != nil {
		return fmt.Errorf("failed to delete task list: %w", err)
	}
	return nil
}
