/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/strfmt"

	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/models"
	"github.com/im-danwu/earn-up/storagemodels"
)

// maxListLimit bounds the limit query parameter of GET /todos.
const maxListLimit = 1000

// listTodos returns the caller's todos. Optional from and to query parameters bound the
// creation time; either may be a date or a date-time, and a date used as to covers that
// whole day. order=desc lists the newest first and limit caps the result.
func (h *handler) listTodos(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	q, err := parseListQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var items []models.TodoItem
	switch {
	case q.Newest || q.Limit > 0:
		items, err = h.svc.Todos.Search(r.Context(), userID, q)
	case q.From.IsZero() && q.To.IsZero():
		items, err = h.svc.Todos.List(r.Context(), userID)
	default:
		items, err = h.svc.Todos.ListCreatedBetween(r.Context(), userID, q.From, q.To)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItems(w, items)
}

func parseListQuery(r *http.Request) (storagemodels.ListQuery, error) {
	var (
		q   storagemodels.ListQuery
		err error
	)
	if q.From, err = parseTimeParam(r, "from", false); err != nil {
		return q, err
	}
	if q.To, err = parseTimeParam(r, "to", true); err != nil {
		return q, err
	}

	params := r.URL.Query()
	switch params.Get("order") {
	case "", "asc":
	case "desc":
		q.Newest = true
	default:
		return q, apperrors.NewValidationError("order", "must be asc or desc")
	}

	if value := params.Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 || limit > maxListLimit {
			return q, apperrors.NewValidationError("limit", fmt.Sprintf("must be an integer between 1 and %d", maxListLimit))
		}
		q.Limit = limit
	}
	return q, nil
}

// parseTimeParam reads an ISO 8601 date or date-time. With endOfDay set a date yields
// the last millisecond of that day.
func parseTimeParam(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}
	if strfmt.IsDate(value) {
		t, err := time.Parse(strfmt.RFC3339FullDate, value)
		if err == nil {
			if endOfDay {
				t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
			}
			return t, nil
		}
	}
	dt, err := strfmt.ParseDateTime(value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(name, "must be an ISO 8601 date or date-time")
	}
	return time.Time(dt), nil
}

func (h *handler) createTodo(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.CreateTodoRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.Todos.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusCreated, item)
}

func (h *handler) createTodos(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.CreateTodosRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.svc.Todos.CreateMany(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemsResponse{Items: items})
}

func (h *handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.UpdateTodoRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.Todos.Update(r.Context(), userID, chi.URLParam(r, "todoId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, item)
}

func (h *handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	if err := h.svc.Todos.Delete(r.Context(), userID, chi.URLParam(r, "todoId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
