/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/im-danwu/earn-up/service"
)

// Services are the operations the API exposes.
type Services struct {
	Todos     *service.TodoService
	TaskLists *service.TaskListService
	Rewards   *service.RewardService
	Accounts  *service.AccountService
}

// Options configures NewRouter.
type Options struct {
	Logger *zap.Logger
	// AllowedOrigins are the CORS origins. Empty allows any origin.
	AllowedOrigins []string
	// Offline reads the caller from an unverified bearer token when no API Gateway
	// authorizer context is present.
	Offline bool
}

type handler struct {
	svc    Services
	logger *zap.Logger
}

// NewRouter builds the API router.
func NewRouter(svc Services, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{svc: svc, logger: logger}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(RequestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", h.health)

	router.Group(func(r chi.Router) {
		r.Use(Authenticator(opts.Offline, logger))

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", h.listTodos)
			r.Post("/", h.createTodo)
			r.Post("/batch", h.createTodos)
			r.Patch("/{todoId}", h.updateTodo)
			r.Delete("/{todoId}", h.deleteTodo)
		})

		r.Route("/tasklists", func(r chi.Router) {
			r.Get("/", h.listTaskLists)
			r.Post("/", h.createTaskList)
			r.Get("/{taskListId}", h.getTaskList)
			r.Put("/{taskListId}", h.upsertTaskList)
			r.Patch("/{taskListId}", h.updateTaskList)
			r.Delete("/{taskListId}", h.deleteTaskList)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", h.listRewards)
			r.Post("/", h.createReward)
			r.Patch("/{rewardId}", h.updateReward)
			r.Delete("/{rewardId}", h.deleteReward)
			r.Post("/{rewardId}/redeem", h.redeemReward)
		})

		r.Get("/accounts/{accountId}/balance", h.getBalance)
	})

	return router
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
