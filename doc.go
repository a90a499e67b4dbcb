/*
Package earnup assembles the earn-up backend: a todo, task list and rewards API on
DynamoDB where completing todos earns points that are spent on rewards.

The workflow is configuration → assembly → serving:
  - Configuration: config.Load merges defaults, a YAML file, .env and the environment
  - Assembly: New builds the DynamoDB client, one datastore per entity, the services
    and the router
  - Serving: Backend.Handler runs as a local server, Backend.Router behind the Lambda
    adapter

Key Features:
  - Type-safe DynamoDB datastores using Go generics
  - Bulk writes split into chunks of 25, sent in parallel, with unprocessed items
    resubmitted under exponential backoff
  - Point balances kept with conditional atomic counters
  - Prometheus metrics for bulk writes and HTTP requests

Basic Usage:

	cfg, _ := config.Load("earnup.yaml")
	logger, _ := logging.New(cfg.LogLevel)

	backend, err := earnup.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	http.ListenAndServe(cfg.HTTP.Addr, backend.Handler())

The cmd/earnup command wraps this in serve, lambda, import and version subcommands.
*/
package earnup
