package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/command"
	"github.com/example/marketplace/internal/domain/ad"
)

func statusForAdError(err error) int {
	switch {
	case errors.Is(err, ad.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ad.ErrInvalidProduct),
		errors.Is(err, ad.ErrInvalidSchedule),
		errors.Is(err, ad.ErrInvalidPrice),
		errors.Is(err, ad.ErrMissingTransaction),
		errors.Is(err, ad.ErrNotPendingApproval),
		errors.Is(err, ad.ErrPaymentDecided):
		return http.StatusBadRequest
	default:
		return statusForError(err)
	}
}

func respondAdError(w http.ResponseWriter, err error) {
	respondJSONError(w, err.Error(), statusForAdError(err))
}

func (h *Handlers) CreateAd(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateAd
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.MerchantID = middleware.GetUserID(r.Context())

	a, err := h.cmdHandler.CreateAd(r.Context(), cmd)
	if err != nil {
		respondAdError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// GetLiveAds returns the ads currently running, optionally filtered to a
// region.
func (h *Handlers) GetLiveAds(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	respondJSON(w, http.StatusOK, h.queryHandler.ListLiveAds(region, nowUTC()))
}

func (h *Handlers) GetMyAds(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListAdsByMerchant(middleware.GetUserID(r.Context())))
}

func (h *Handlers) ConfirmAdPayment(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/ads/"), "/confirm-payment")

	a, err := h.cmdHandler.ConfirmAdPayment(r.Context(), command.ConfirmAdPayment{AdID: id})
	if err != nil {
		respondAdError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// Admin ad handlers

func (h *Handlers) GetPendingAds(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListPendingAds())
}

func (h *Handlers) ReviewAd(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/admin/ads/"), "/review")

	var req struct {
		Approve bool   `json:"approve"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.cmdHandler.ReviewAd(r.Context(), command.ReviewAd{
		AdID:    id,
		AdminID: middleware.GetUserID(r.Context()),
		Approve: req.Approve,
		Reason:  req.Reason,
	})
	if err != nil {
		respondAdError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
