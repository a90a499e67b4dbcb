/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/im-danwu/earn-up/errors"
)

type itemResponse struct {
	Item any `json:"item"`
}

type itemsResponse struct {
	Items any `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeItem(w http.ResponseWriter, status int, item any) {
	writeJSON(w, status, itemResponse{Item: item})
}

// writeItems never encodes a nil slice as null.
func writeItems[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("body", "must be a valid JSON object: "+err.Error())
	}
	return nil
}

// fail maps err to a status code and writes it. Internal errors are logged and hidden.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case apperrors.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "Insufficient balance")
	case apperrors.IsConditionFailed(err):
		writeError(w, http.StatusConflict, "Item was modified concurrently, retry the request")
	case errors.Is(err, apperrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden")
	default:
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
	}
}
