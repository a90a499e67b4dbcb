/*
Package storagemodels defines the data structures shared by the datastore packages.

Key addresses a single item of a user-partitioned table:

	key := storagemodels.Key{Partition: userID, Sort: todoID}

QueryParams carries the parameters of a DynamoDB Query:

	params := &QueryParams{
	    TableName:              "todos",
	    KeyConditionExpression: "#0 = :0",
	    ExpressionAttributeNames: map[string]string{"#0": "userId"},
	    ExpressionAttributeValues: map[string]types.AttributeValue{
	        ":0": &types.AttributeValueMemberS{Value: "user-1"},
	    },
	    IndexName: aws.String("CreatedAtIndex"),
	}

ListQuery selects a user's items by creation time:

	q := storagemodels.ListQuery{From: weekAgo, Newest: true, Limit: 20}

StreamOptions and BatchOptions are configured through functional options:

	results := store.Stream(ctx, params, WithPageSize(25), WithMaxRetries(3))

	writer := ddb.NewBatchWriter(client, "todos", logger,
	    WithChunkSize(25),
	    WithMaxAttempts(8),
	    WithBaseDelay(50*time.Millisecond),
	)
*/
package storagemodels
