// internal/superlikes/handlers.go

package superlikes

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
	"github.com/imadgeboyega/matchup-backend/internal/mpesa"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
)

// Handler handles superlike ledger requests
type Handler struct {
	service Service
}

// NewHandler creates a new superlikes handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Send handles POST /api/v1/superlikes/send
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Send(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, result, http.StatusOK)
}

// Buy handles POST /api/v1/superlikes/buy. The purchase completes
// asynchronously; clients follow status_url or the websocket.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.service.Buy(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"topup_id":            t.ID,
		"checkout_request_id": t.CheckoutRequestID,
		"status":              t.Status,
		"status_url":          "/api/v1/superlikes/buy/" + t.CheckoutRequestID,
	}, http.StatusAccepted)
}

// TopUpStatus handles GET /api/v1/superlikes/buy/{checkout_request_id}.
// ?wait=30s blocks until the payment settles or the wait ends.
func (h *Handler) TopUpStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	checkoutID := mux.Vars(r)["checkout_request_id"]

	var wait time.Duration
	if v := r.URL.Query().Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			utils.ErrorResponse(w, "wait must be a duration such as 30s", http.StatusBadRequest)
			return
		}
		wait = d
	}

	t, err := h.service.TopUpStatus(r.Context(), userID, checkoutID, wait)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, t, http.StatusOK)
}

// Count handles GET /api/v1/superlikes/count
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	amount, err := h.service.Count(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]int64{"amount": amount}, http.StatusOK)
}

// Withdraw handles POST /api/v1/superlikes/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Withdraw(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, result, http.StatusOK)
}

// MyWithdrawals handles GET /api/v1/superlikes/withdrawals/me
func (h *Handler) MyWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	page := utils.ParsePage(r)
	filter := &WithdrawalFilter{UserID: &userID, Limit: page.Limit, Offset: page.Offset()}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	h.listWithdrawals(w, r, page, filter)
}

// ListWithdrawals handles GET /api/v1/superlikes/withdrawals (admin)
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	filter := &WithdrawalFilter{Limit: page.Limit, Offset: page.Offset()}

	userID, err := utils.QueryInt64(r, "user_id")
	if err != nil {
		utils.ErrorResponse(w, "user_id must be an integer", http.StatusBadRequest)
		return
	}
	filter.UserID = userID
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	h.listWithdrawals(w, r, page, filter)
}

func (h *Handler) listWithdrawals(w http.ResponseWriter, r *http.Request, page utils.Page, filter *WithdrawalFilter) {
	withdrawals, total, err := h.service.ListWithdrawals(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"withdrawals": withdrawals,
		"pagination":  utils.NewPagination(page, total),
	}, http.StatusOK)
}

// CompleteWithdrawals handles POST /api/v1/superlikes/withdrawals/complete (admin)
func (h *Handler) CompleteWithdrawals(w http.ResponseWriter, r *http.Request) {
	var req CompleteWithdrawalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.service.CompleteWithdrawals(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]int64{"user_id": req.UserID, "completed": n}, http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mpesa.ErrGatewayFailure):
		log.Printf("superlikes: %v", err)
		utils.ErrorResponse(w, "Payment gateway unavailable, please try again", http.StatusBadGateway)
	case errors.Is(err, ErrReceiverNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTopUpNotFound):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrPaymentNotFound):
		utils.ErrorResponse(w, "We could not find your payment, contact support", http.StatusNotFound)
	case errors.Is(err, profile.ErrProfileNotFound):
		utils.ErrorResponse(w, "User profile not found", http.StatusNotFound)
	case errors.Is(err, ErrProfileInactive), errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSelfTransfer), errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, mpesa.ErrInvalidAmount), errors.Is(err, mpesa.ErrInvalidPhone):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(w, "Request cancelled", http.StatusRequestTimeout)
	default:
		log.Printf("superlikes: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
