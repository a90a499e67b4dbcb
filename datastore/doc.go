/*
Package datastore defines the storage contract shared by every entity of the application.

DataStore[T] is keyed by storagemodels.Key, whose partition is always the owning user:

	type DataStore[T any] interface {
	    GetOne(ctx context.Context, key storagemodels.Key) (*T, error)
	    Put(ctx context.Context, entity T) error
	    PutIfAbsent(ctx context.Context, entity T) (T, bool, error)
	    Update(ctx context.Context, key storagemodels.Key, updates map[string]any) error
	    UpdateIf(ctx context.Context, key storagemodels.Key, updates, expected map[string]any) error
	    Increment(ctx context.Context, key storagemodels.Key, attribute string, delta int64) (int64, error)
	    Delete(ctx context.Context, key storagemodels.Key) error
	    ListByPartition(ctx context.Context, partition string) ([]T, error)
	    ListCreatedBetween(ctx context.Context, partition string, from, to time.Time) ([]T, error)
	    List(ctx context.Context, partition string, q storagemodels.ListQuery) ([]T, error)
	    BatchPut(ctx context.Context, entities []T) error
	}

Implementations:
  - ddb: DynamoDB, one table per entity type, bulk writes through BatchWriter
  - mock: in-memory implementation with error injection for tests
*/
package datastore
