// internal/matching/handlers.go

package matching

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles match requests
type Handler struct {
	service Service
}

// NewHandler creates a new matching handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateMatch handles POST /api/v1/matches
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.service.Create(r.Context(), userID, auth.IsAdminContext(r.Context()), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, m, http.StatusCreated)
}

// ListMatches handles GET /api/v1/matches. Admins may pass user_id to
// inspect another account.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	page := utils.ParsePage(r)
	filter := &ListFilter{UserID: userID, Limit: page.Limit, Offset: page.Offset()}

	var err error
	if auth.IsAdminContext(r.Context()) {
		other, err := utils.QueryInt64(r, "user_id")
		if err != nil {
			utils.ErrorResponse(w, "user_id must be an integer", http.StatusBadRequest)
			return
		}
		if other != nil {
			filter.UserID = *other
		}
	}
	if filter.IsLiked, err = utils.QueryBool(r, "is_liked"); err != nil {
		utils.ErrorResponse(w, "is_liked must be a boolean", http.StatusBadRequest)
		return
	}
	if filter.IsMutual, err = utils.QueryBool(r, "is_mutual"); err != nil {
		utils.ErrorResponse(w, "is_mutual must be a boolean", http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.ErrorResponse(w, "min_score must be a number", http.StatusBadRequest)
			return
		}
		filter.MinScore = &score
	}

	matches, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"matches":    matches,
		"pagination": utils.NewPagination(page, total),
	}, http.StatusOK)
}

// GetMatch handles GET /api/v1/matches/{id}
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	m, err := h.service.Get(r.Context(), userID, auth.IsAdminContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, m, http.StatusOK)
}

// UpdateMatch handles PATCH /api/v1/matches/{id}
func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	var req UpdateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.service.Update(r.Context(), userID, auth.IsAdminContext(r.Context()), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, m, http.StatusOK)
}

// DeleteMatch handles DELETE /api/v1/matches/{id}
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), userID, auth.IsAdminContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Match deleted", http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMatchNotFound):
		utils.ErrorResponse(w, "Match not found", http.StatusNotFound)
	case errors.Is(err, ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateMatch):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, ErrSelfMatch), errors.Is(err, ErrNothingToUpdate):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("matching: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
