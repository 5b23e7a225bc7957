package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/marketplace/internal/api/middleware"
	"github.com/example/marketplace/internal/command"
	"github.com/example/marketplace/internal/domain/auction"
)

// statusForAuctionError extends the shared taxonomy with the bid-specific
// rejections, which are all client errors.
func statusForAuctionError(err error) int {
	switch {
	case errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrSelfBid),
		errors.Is(err, auction.ErrNotActive),
		errors.Is(err, auction.ErrNotApproved),
		errors.Is(err, auction.ErrNotStarted),
		errors.Is(err, auction.ErrNotOverYet),
		errors.Is(err, auction.ErrAlreadyEnded),
		errors.Is(err, auction.ErrNotPendingAuction),
		errors.Is(err, auction.ErrHasBids),
		errors.Is(err, auction.ErrInvalidTitle),
		errors.Is(err, auction.ErrInvalidCondition),
		errors.Is(err, auction.ErrInvalidPrices),
		errors.Is(err, auction.ErrInvalidReserve),
		errors.Is(err, auction.ErrInvalidTimes),
		errors.Is(err, auction.ErrInvalidDelivery):
		return http.StatusBadRequest
	default:
		return statusForError(err)
	}
}

func respondAuctionError(w http.ResponseWriter, err error) {
	respondJSONError(w, err.Error(), statusForAuctionError(err))
}

func (h *Handlers) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateAuction
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.MerchantID = middleware.GetUserID(r.Context())

	a, err := h.cmdHandler.CreateAuction(r.Context(), cmd)
	if err != nil {
		respondAuctionError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *Handlers) GetAuctions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListAuctions(r.URL.Query().Get("status")))
}

func (h *Handlers) GetAuction(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/auctions/")
	a, ok := h.queryHandler.GetAuction(id)
	if !ok {
		respondJSONError(w, "Auction not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handlers) GetBids(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/auctions/"), "/bids")
	if _, ok := h.queryHandler.GetAuction(id); !ok {
		respondJSONError(w, "Auction not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListBids(id))
}

func (h *Handlers) PlaceBid(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/auctions/"), "/bids")

	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a, bid, err := h.cmdHandler.PlaceBid(r.Context(), command.PlaceBid{
		AuctionID: id,
		BidderID:  middleware.GetUserID(r.Context()),
		Amount:    req.Amount,
	})
	if err != nil {
		respondAuctionError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"bid":         bid,
		"highest_bid": a.HighestBid(),
		"minimum_bid": a.MinimumBid(),
	})
}

func (h *Handlers) CancelAuction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/auctions/"), "/cancel")

	a, err := h.cmdHandler.CancelAuction(r.Context(), command.CancelAuction{
		AuctionID:  id,
		MerchantID: middleware.GetUserID(r.Context()),
	})
	if err != nil {
		respondAuctionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// Admin auction handlers

func (h *Handlers) GetPendingAuctions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListPendingAuctions())
}

func (h *Handlers) ReviewAuction(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/admin/auctions/"), "/review")

	var req struct {
		Approve bool   `json:"approve"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	a, err := h.cmdHandler.ReviewAuction(r.Context(), command.ReviewAuction{
		AuctionID: id,
		AdminID:   middleware.GetUserID(r.Context()),
		Approve:   req.Approve,
		Reason:    req.Reason,
	})
	if err != nil {
		respondAuctionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}
