/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/im-danwu/earn-up/errors"
)

// getBalance answers for the caller's own account only. The account may be addressed as
// "me", by user id, or by the caller's bearer token, which is what the web client sends.
func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	accountID := chi.URLParam(r, "accountId")
	if accountID != "me" && accountID != userID && accountID != bearerToken(r) {
		h.fail(w, r, apperrors.ErrForbidden)
		return
	}

	account, err := h.svc.Accounts.Balance(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, account)
}
