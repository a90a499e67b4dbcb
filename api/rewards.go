/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/im-danwu/earn-up/models"
)

func (h *handler) listRewards(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	rewards, err := h.svc.Rewards.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItems(w, rewards)
}

func (h *handler) createReward(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.CreateRewardRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reward, err := h.svc.Rewards.Create(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusCreated, reward)
}

func (h *handler) updateReward(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.UpdateRewardRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reward, err := h.svc.Rewards.Update(r.Context(), userID, chi.URLParam(r, "rewardId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, reward)
}

func (h *handler) deleteReward(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	if err := h.svc.Rewards.Delete(r.Context(), userID, chi.URLParam(r, "rewardId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// redeemReward sets the reward's redeemed state and answers with the caller's account.
func (h *handler) redeemReward(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req models.RedeemRewardRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := models.Validate(req); err != nil {
		h.fail(w, r, err)
		return
	}

	balance, err := h.svc.Rewards.Redeem(r.Context(), userID, chi.URLParam(r, "rewardId"), *req.Redeemed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeItem(w, http.StatusOK, models.Account{UserID: userID, Balance: balance})
}
