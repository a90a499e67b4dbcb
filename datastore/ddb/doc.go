/*
Package ddb provides the DynamoDB implementation of the DataStore interface.

Each entity type lives in its own table, keyed by the schema registered for it in the
registry package. The store supports:
  - Conditional writes (PutIfAbsent, Update on existing items, guarded decrements)
  - Atomic counters through ADD updates
  - Partition listings and creation-time ranges over a user index
  - Streaming queries with retry of throttled pages
  - Bulk writes through BatchWriter

BatchWriter:
Any number of requests are split into chunks of at most 25, every chunk is submitted
concurrently, and each chunk's unprocessed items are resubmitted with exponential backoff
until none remain:

	w := ddb.NewBatchWriter(client, "todos", logger,
	    storagemodels.WithMaxAttempts(8),
	    storagemodels.WithBaseDelay(50*time.Millisecond),
	)
	if err := w.WriteAll(ctx, items); err != nil {
	    var swe *errors.StoreWriteError
	    if stderrors.As(err, &swe) {
	        // swe.Chunk failed on swe.Attempt with swe.Pending items left
	    }
	}

User queries:

	recent, err := store.QueryUser(userID).
	    CreatedSince(time.Now().AddDate(0, 0, -7)).
	    Descending().
	    Collect(ctx, 20)

List wraps the same builder for a storagemodels.ListQuery. Every query pages through
Stream, whose page size and throttle retry are set per store or per call:

	store, err := ddb.NewDynamodbDataStore[models.TodoItem](client, "todos",
	    ddb.WithIndex("CreatedAtIndex"),
	    ddb.WithStreamOptions(storagemodels.WithPageSize(100), storagemodels.WithMaxRetries(3)),
	)
	for r := range store.Stream(ctx, params, storagemodels.WithBufferSize(10)) {
	    if r.Error != nil {
	        return r.Error
	    }
	    handle(r.Item)
	}
*/
package ddb
