/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package earnup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/api"
	"github.com/im-danwu/earn-up/config"
	"github.com/im-danwu/earn-up/datastore/ddb"
	"github.com/im-danwu/earn-up/metrics"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/service"
)

// Stores holds one DynamoDB datastore per entity.
type Stores struct {
	Todos     *ddb.DynamodbDataStore[models.TodoItem]
	TaskLists *ddb.DynamodbDataStore[models.TaskList]
	Rewards   *ddb.DynamodbDataStore[models.Reward]
	Accounts  *ddb.DynamodbDataStore[models.Account]
}

// Backend is the assembled application: datastores, services and the HTTP handler.
type Backend struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Stores   Stores
	Services api.Services

	router  *chi.Mux
	handler http.Handler
}

// New connects to DynamoDB as configured and assembles the backend.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...service.Option) (*Backend, error) {
	client, err := ddb.NewDynamoDBClient(ctx, cfg.ClientOptions(), logger)
	if err != nil {
		return nil, err
	}
	return NewWithClient(cfg, client, logger, opts...)
}

// NewWithClient assembles the backend on an existing DynamoDB client.
func NewWithClient(cfg *config.Config, client ddb.Client, logger *zap.Logger, opts ...service.Option) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backend{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewCollector("earnup"),
	}

	storeOpts := func(table config.TableConfig) []ddb.StoreOption {
		return []ddb.StoreOption{
			ddb.WithIndex(table.Index),
			ddb.WithLogger(logger),
			ddb.WithBatchObserver(b.Metrics),
			ddb.WithBatchOptions(cfg.BatchOptions()...),
			ddb.WithStreamOptions(cfg.StreamOptions()...),
		}
	}

	var err error
	if b.Stores.Todos, err = ddb.NewDynamodbDataStore[models.TodoItem](client, cfg.Tables.Todos.Name, storeOpts(cfg.Tables.Todos)...); err != nil {
		return nil, fmt.Errorf("failed to create todos store: %w", err)
	}
	if b.Stores.TaskLists, err = ddb.NewDynamodbDataStore[models.TaskList](client, cfg.Tables.TaskLists.Name, storeOpts(cfg.Tables.TaskLists)...); err != nil {
		return nil, fmt.Errorf("failed to create task lists store: %w", err)
	}
	if b.Stores.Rewards, err = ddb.NewDynamodbDataStore[models.Reward](client, cfg.Tables.Rewards.Name, storeOpts(cfg.Tables.Rewards)...); err != nil {
		return nil, fmt.Errorf("failed to create rewards store: %w", err)
	}
	if b.Stores.Accounts, err = ddb.NewDynamodbDataStore[models.Account](client, cfg.Tables.Accounts.Name, storeOpts(cfg.Tables.Accounts)...); err != nil {
		return nil, fmt.Errorf("failed to create accounts store: %w", err)
	}

	opts = append([]service.Option{service.WithLogger(logger)}, opts...)
	accounts := service.NewAccountService(b.Stores.Accounts, opts...)
	b.Services = api.Services{
		Todos:     service.NewTodoService(b.Stores.Todos, accounts, opts...),
		TaskLists: service.NewTaskListService(b.Stores.TaskLists, opts...),
		Rewards:   service.NewRewardService(b.Stores.Rewards, accounts, opts...),
		Accounts:  accounts,
	}

	router := api.NewRouter(b.Services, api.Options{
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Offline:        cfg.Offline,
	})
	router.Handle("/metrics", b.Metrics.Handler())
	b.router = router
	b.handler = b.Metrics.Middleware(router)

	logger.Info("Backend ready",
		zap.String("todosTable", cfg.Tables.Todos.Name),
		zap.String("taskListsTable", cfg.Tables.TaskLists.Name),
		zap.String("rewardsTable", cfg.Tables.Rewards.Name),
		zap.String("accountsTable", cfg.Tables.Accounts.Name),
		zap.Bool("offline", cfg.Offline))
	return b, nil
}

// Handler returns the HTTP handler serving the API and /metrics, with request metrics.
func (b *Backend) Handler() http.Handler {
	return b.handler
}

// Router returns the bare API router, for adapters that need a *chi.Mux.
func (b *Backend) Router() *chi.Mux {
	return b.router
}
