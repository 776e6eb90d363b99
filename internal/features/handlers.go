// internal/features/handlers.go

package features

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles feature access requests
type Handler struct {
	service Service
}

// NewHandler creates a new features handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateAccess handles POST /api/v1/features-access (admin)
func (h *Handler) CreateAccess(w http.ResponseWriter, r *http.Request) {
	var req CreateAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, a, http.StatusCreated)
}

// ListAccess handles GET /api/v1/features-access
func (h *Handler) ListAccess(w http.ResponseWriter, r *http.Request) {
	filter := &ListFilter{}
	var err error
	if filter.UserID, err = utils.QueryInt64(r, "user_id"); err != nil {
		utils.ErrorResponse(w, "user_id must be an integer", http.StatusBadRequest)
		return
	}
	if filter.IsActive, err = utils.QueryBool(r, "is_active"); err != nil {
		utils.ErrorResponse(w, "is_active must be a boolean", http.StatusBadRequest)
		return
	}
	if f := r.URL.Query().Get("feature"); f != "" {
		filter.Feature = &f
	}

	if !auth.IsAdminContext(r.Context()) {
		userID, _ := auth.GetUserIDFromContext(r.Context())
		filter.UserID = &userID
	}

	rows, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, rows, http.StatusOK)
}

// GetAccess handles GET /api/v1/features-access/{id}
func (h *Handler) GetAccess(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	a, err := h.service.Get(r.Context(), userID, auth.IsAdminContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, a, http.StatusOK)
}

// UpdateAccess handles PATCH /api/v1/features-access/{id} (admin)
func (h *Handler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	var req UpdateAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, a, http.StatusOK)
}

// DeleteAccess handles DELETE /api/v1/features-access/{id} (admin)
func (h *Handler) DeleteAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Feature access deleted", http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccessNotFound):
		utils.ErrorResponse(w, "Feature access record not found", http.StatusNotFound)
	case errors.Is(err, ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateAccess):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrNothingToUpdate):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("features: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
