// internal/profile/handlers.go

package profile

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles profile-related HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates a new profile handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateProfile handles POST /api/v1/user-profiles
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusCreated)
}

// GetMyProfile handles GET /api/v1/user-profiles/me
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	p, err := h.service.GetMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// GetProfile handles GET /api/v1/user-profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid profile ID", http.StatusBadRequest)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// ListProfiles handles GET /api/v1/user-profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	filter := &ListFilter{Limit: page.Limit, Offset: page.Offset()}
	if g := r.URL.Query().Get("gender"); g != "" {
		filter.Gender = &g
	}

	profiles, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"profiles":   profiles,
		"pagination": utils.NewPagination(page, total),
	}, http.StatusOK)
}

// UpdateProfile handles PATCH /api/v1/user-profiles/{id}
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid profile ID", http.StatusBadRequest)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.Update(r.Context(), userID, auth.IsAdminContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// DeleteProfile handles DELETE /api/v1/user-profiles/{id}
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid profile ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), userID, auth.IsAdminContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Profile deleted", http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		utils.ErrorResponse(w, "Profile not found", http.StatusNotFound)
	case errors.Is(err, ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	case errors.Is(err, ErrProfileExists):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, "You can only modify your own profile", http.StatusForbidden)
	case errors.Is(err, ErrInvalidDate):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("profile: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
