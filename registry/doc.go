/*
Package registry associates Go entity types with the key schema of their DynamoDB table.

Each entity lives in its own table, partitioned by user id:

	registry.RegisterKeySchema[models.TodoItem](registry.KeySchema{
	    PartitionKey: "userId",
	    SortKey:      "todoId",
	    IndexSortKey: "createdAt",
	})

The datastores use the schema to build Get/Update/Delete keys, to condition
create-if-absent writes on the partition key, and to query the user index. KeyOf
extracts the key of an entity value.

The registry is thread-safe and is populated from init() in package models.
*/
package registry
