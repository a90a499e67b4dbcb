/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"time"

	"github.com/im-danwu/earn-up/registry"
	"github.com/im-danwu/earn-up/storagemodels"
)

// TodoItem is a single todo. Completing it credits Points to the owner's account.
type TodoItem struct {
	UserID        string `json:"userId" dynamodbav:"userId"`
	TodoID        string `json:"todoId" dynamodbav:"todoId"`
	CreatedAt     string `json:"createdAt" dynamodbav:"createdAt"`
	Name          string `json:"name" dynamodbav:"name"`
	DueDate       string `json:"dueDate" dynamodbav:"dueDate"`
	Done          bool   `json:"done" dynamodbav:"done"`
	Points        int64  `json:"points" dynamodbav:"points"`
	TaskListID    string `json:"taskListId,omitempty" dynamodbav:"taskListId,omitempty"`
	AttachmentURL string `json:"attachmentUrl,omitempty" dynamodbav:"attachmentUrl,omitempty"`
}

// TaskList groups todos. Ids may be chosen by the client so that lists created offline
// can be synced with Upsert.
type TaskList struct {
	UserID     string `json:"userId" dynamodbav:"userId"`
	TaskListID string `json:"taskListId" dynamodbav:"taskListId"`
	CreatedAt  string `json:"createdAt" dynamodbav:"createdAt"`
	Title      string `json:"title" dynamodbav:"title"`
	SyncedAt   string `json:"syncedAt,omitempty" dynamodbav:"syncedAt,omitempty"`
}

// Reward is something a user buys with the points earned from todos.
type Reward struct {
	UserID        string `json:"userId" dynamodbav:"userId"`
	RewardID      string `json:"rewardId" dynamodbav:"rewardId"`
	CreatedAt     string `json:"createdAt" dynamodbav:"createdAt"`
	Name          string `json:"name" dynamodbav:"name"`
	Cost          int64  `json:"cost" dynamodbav:"cost"`
	Redeemed      bool   `json:"redeemed" dynamodbav:"redeemed"`
	AttachmentURL string `json:"attachmentUrl,omitempty" dynamodbav:"attachmentUrl,omitempty"`
}

// Account holds a user's point balance.
type Account struct {
	UserID  string `json:"userId" dynamodbav:"userId"`
	Balance int64  `json:"balance" dynamodbav:"balance"`
}

// BalanceAttribute is the attribute incremented and decremented on Account items.
const BalanceAttribute = "balance"

func init() {
	registry.RegisterKeySchema[TodoItem](registry.KeySchema{
		PartitionKey: "userId",
		SortKey:      "todoId",
		IndexSortKey: "createdAt",
	})
	registry.RegisterKeySchema[TaskList](registry.KeySchema{
		PartitionKey: "userId",
		SortKey:      "taskListId",
		IndexSortKey: "createdAt",
	})
	registry.RegisterKeySchema[Reward](registry.KeySchema{
		PartitionKey: "userId",
		SortKey:      "rewardId",
		IndexSortKey: "createdAt",
	})
	registry.RegisterKeySchema[Account](registry.KeySchema{
		PartitionKey: "userId",
	})
}

// Timestamp formats t the way createdAt and syncedAt are stored, so that they sort
// lexically on the user index.
func Timestamp(t time.Time) string {
	return storagemodels.Timestamp(t)
}
