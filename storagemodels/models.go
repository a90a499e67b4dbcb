/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
)

// Timestamp formats t as stored in time-valued key attributes: RFC 3339 in UTC with
// millisecond precision, so that values sort lexically in time order.
func Timestamp(t time.Time) string {
	return strfmt.DateTime(t.UTC()).String()
}

// Key addresses one item. Every table in this application is partitioned by user, so
// Partition is the user id; Sort is the item id and is empty for partition-only tables.
type Key struct {
	Partition string
	Sort      string
}

// String renders the key for error messages and logs.
func (k Key) String() string {
	if k.Sort == "" {
		return k.Partition
	}
	return k.Partition + "/" + k.Sort
}

// QueryParams defines parameters for a DynamoDB Query operation.
type QueryParams struct {
	// TableName is the DynamoDB table name. Empty targets the store's own table.
	TableName string
	// KeyConditionExpression is the primary condition for the query.
	KeyConditionExpression string
	// ExpressionAttributeNames contains the names for expression placeholders.
	ExpressionAttributeNames map[string]string
	// ExpressionAttributeValues contains the values for expression placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue
	// IndexName is optional if you wish to query a secondary index.
	IndexName *string
	// Limit defines an optional limit per query page.
	Limit *int32
	// ScanIndexForward false reads the range key in descending order.
	ScanIndexForward *bool
}
