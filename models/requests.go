/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

// CreateTodoRequest is the body of POST /todos and one element of POST /todos/batch.
type CreateTodoRequest struct {
	Name       string `json:"name" yaml:"name" validate:"required,max=256"`
	DueDate    string `json:"dueDate" yaml:"dueDate" validate:"required,isodate"`
	Points     int64  `json:"points" yaml:"points" validate:"gte=0"`
	TaskListID string `json:"taskListId,omitempty" yaml:"taskListId" validate:"omitempty,max=128"`
}

// CreateTodosRequest is the body of POST /todos/batch.
type CreateTodosRequest struct {
	Items []CreateTodoRequest `json:"items" yaml:"items" validate:"required,min=1,dive"`
}

// UpdateTodoRequest is the body of PATCH /todos/{todoId}.
type UpdateTodoRequest struct {
	Name    string `json:"name" validate:"required,max=256"`
	DueDate string `json:"dueDate" validate:"required,isodate"`
	Done    bool   `json:"done"`
}

// CreateTaskListRequest is the body of POST /tasklists and PUT /tasklists/{taskListId}.
type CreateTaskListRequest struct {
	TaskListID string `json:"taskListId,omitempty" validate:"omitempty,max=128"`
	Title      string `json:"title" validate:"required,max=256"`
	SyncedAt   string `json:"syncedAt,omitempty" validate:"omitempty,isodate"`
}

// UpdateTaskListRequest is the body of PATCH /tasklists/{taskListId}.
type UpdateTaskListRequest struct {
	Title    string `json:"title" validate:"required,max=256"`
	SyncedAt string `json:"syncedAt" validate:"required,isodate"`
}

// CreateRewardRequest is the body of POST /rewards.
type CreateRewardRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Cost int64  `json:"cost" validate:"gte=0"`
}

// UpdateRewardRequest is the body of PATCH /rewards/{rewardId}.
type UpdateRewardRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Cost int64  `json:"cost" validate:"gte=0"`
}

// RedeemRewardRequest is the body of POST /rewards/{rewardId}/redeem.
type RedeemRewardRequest struct {
	Redeemed *bool `json:"redeemed" validate:"required"`
}
