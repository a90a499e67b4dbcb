/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/im-danwu/earn-up/errors"
	"github.com/im-danwu/earn-up/models"
)

func (h *handler) listTaskLists(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	lists, err := h.svc.TaskLists.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItems(w, lists)
}

func (h *handler) getTaskList(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	list, err := h.svc.TaskLists.Get(r.Context(), userID, chi.URLParam(r, "taskListId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, list)
}

func (h *handler) createTaskList(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.CreateTaskListRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.TaskLists.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusCreated, list)
}

// upsertTaskList creates the list named by the path unless it exists. It answers 201 with
// the new list or 200 with the stored one.
func (h *handler) upsertTaskList(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	taskListID := chi.URLParam(r, "taskListId")

	var req models.CreateTaskListRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.TaskListID != "" && req.TaskListID != taskListID {
		h.fail(w, r, apperrors.NewValidationError("taskListId", "must match the path"))
		return
	}

	list, created, err := h.svc.TaskLists.Upsert(r.Context(), userID, taskListID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeItem(w, status, list)
}

func (h *handler) updateTaskList(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.UpdateTaskListRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.svc.TaskLists.Update(r.Context(), userID, chi.URLParam(r, "taskListId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, list)
}

func (h *handler) deleteTaskList(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	if err := h.svc.TaskLists.Delete(r.Context(), userID, chi.URLParam(r, "taskListId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
