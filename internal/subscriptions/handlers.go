// internal/subscriptions/handlers.go

package subscriptions

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles subscription requests
type Handler struct {
	service Service
}

// NewHandler creates a new subscription handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateSubscription handles POST /api/v1/subscriptions (admin)
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, sub, http.StatusCreated)
}

// ListSubscriptions handles GET /api/v1/subscriptions. Customers only see
// their own rows whatever user_id they pass.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	filter := &ListFilter{Limit: page.Limit, Offset: page.Offset()}

	var err error
	if filter.UserID, err = utils.QueryInt64(r, "user_id"); err != nil {
		utils.ErrorResponse(w, "user_id must be an integer", http.StatusBadRequest)
		return
	}
	if filter.PlanID, err = utils.QueryInt64(r, "plan_id"); err != nil {
		utils.ErrorResponse(w, "plan_id must be an integer", http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("payment_status"); v != "" {
		filter.PaymentStatus = &v
	}
	if v := r.URL.Query().Get("subscription_type"); v != "" {
		filter.SubscriptionType = &v
	}

	if !auth.IsAdminContext(r.Context()) {
		userID, _ := auth.GetUserIDFromContext(r.Context())
		filter.UserID = &userID
	}

	subs, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"subscriptions": subs,
		"pagination":    utils.NewPagination(page, total),
	}, http.StatusOK)
}

// GetMySubscription handles GET /api/v1/subscriptions/me
func (h *Handler) GetMySubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	sub, err := h.service.GetMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, sub, http.StatusOK)
}

// GetSubscription handles GET /api/v1/subscriptions/{id}
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	sub, err := h.service.Get(r.Context(), userID, auth.IsAdminContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, sub, http.StatusOK)
}

// UpdateSubscription handles PATCH /api/v1/subscriptions/{id} (admin)
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	var req UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, sub, http.StatusOK)
}

// DeleteSubscription handles DELETE /api/v1/subscriptions/{id} (admin)
func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Subscription deleted", http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		utils.ErrorResponse(w, "Subscription not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateTransaction):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, ErrInvalidReference), errors.Is(err, ErrInvalidDates), errors.Is(err, ErrInvalidDays):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("subscriptions: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
