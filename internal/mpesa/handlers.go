// internal/mpesa/handlers.go

package mpesa

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
	"github.com/imadgeboyega/matchup-backend/internal/plans"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
)

// Handler handles M-Pesa requests, payments and the gateway webhook
type Handler struct {
	service       Service
	callbackToken string
}

// NewHandler creates a new mpesa handler. An empty callbackToken disables
// the webhook token check.
func NewHandler(service Service, callbackToken string) *Handler {
	return &Handler{service: service, callbackToken: callbackToken}
}

// PayForPlan handles POST /api/v1/mpesa-requests
func (h *Handler) PayForPlan(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req PlanPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.service.PayForPlan(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"message":             "Payment request sent. Complete the M-Pesa prompt on your phone.",
		"checkout_request_id": record.CheckoutRequestID,
		"request":             record,
	}, http.StatusAccepted)
}

// ListRequests handles GET /api/v1/mpesa-requests (admin)
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	filter := &RequestFilter{Limit: page.Limit, Offset: page.Offset()}

	var err error
	if filter.UserID, err = utils.QueryInt64(r, "user_id"); err != nil {
		utils.ErrorResponse(w, "user_id must be an integer", http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("purpose"); v != "" {
		filter.Purpose = &v
	}

	h.listRequests(w, r, page, filter)
}

// MyRequests handles GET /api/v1/mpesa-requests/me
func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	page := utils.ParsePage(r)
	h.listRequests(w, r, page, &RequestFilter{UserID: &userID, Limit: page.Limit, Offset: page.Offset()})
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, page utils.Page, filter *RequestFilter) {
	reqs, total, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"requests":   reqs,
		"pagination": utils.NewPagination(page, total),
	}, http.StatusOK)
}

// Callback handles POST /api/v1/mpesa/callback?token=
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.callbackToken != "" {
		got := r.URL.Query().Get("token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.callbackToken)) != 1 {
			utils.ErrorResponse(w, "Invalid callback token", http.StatusUnauthorized)
			return
		}
	}

	var cb Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.HandleCallback(r.Context(), &cb); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Callback processed", http.StatusOK)
}

// CreatePayment handles POST /api/v1/mpesa-payments (admin)
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.CreatePayment(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusCreated)
}

// ListPayments handles GET /api/v1/mpesa-payments (admin)
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	filter := &PaymentFilter{Limit: page.Limit, Offset: page.Offset()}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("phone"); v != "" {
		filter.Phone = &v
	}

	payments, total, err := h.service.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"payments":   payments,
		"pagination": utils.NewPagination(page, total),
	}, http.StatusOK)
}

// GetPayment handles GET /api/v1/mpesa-payments/{id} (admin)
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid payment ID", http.StatusBadRequest)
		return
	}

	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// UpdatePayment handles PATCH /api/v1/mpesa-payments/{id} (admin)
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid payment ID", http.StatusBadRequest)
		return
	}

	var req UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.UpdatePayment(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// DeletePayment handles DELETE /api/v1/mpesa-payments/{id} (admin)
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid payment ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Mpesa payment deleted", http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGatewayFailure):
		log.Printf("mpesa: %v", err)
		utils.ErrorResponse(w, "Payment gateway unavailable, please try again", http.StatusBadGateway)
	case errors.Is(err, plans.ErrPlanNotFound):
		utils.ErrorResponse(w, "Plan not found", http.StatusNotFound)
	case errors.Is(err, profile.ErrProfileNotFound):
		utils.ErrorResponse(w, "User profile not found", http.StatusNotFound)
	case errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrRequestNotFound):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAccountInactive):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrDuplicatePayment), errors.Is(err, ErrDuplicateRequest):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, plans.ErrUnsupportedGender), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrInvalidCallback), errors.Is(err, ErrNothingToUpdate):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("mpesa: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
