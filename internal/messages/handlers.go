// internal/messages/handlers.go

package messages

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles message requests
type Handler struct {
	service Service
}

// NewHandler creates a new messages handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// SendMessage handles POST /api/v1/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.service.Send(r.Context(), userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, msg, http.StatusCreated)
}

// ListMessages handles GET /api/v1/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	page := utils.ParsePage(r)
	filter := &ListFilter{UserID: userID, Limit: page.Limit, Offset: page.Offset()}

	var err error
	if filter.WithUser, err = utils.QueryInt64(r, "with_user"); err != nil {
		utils.ErrorResponse(w, "with_user must be an integer", http.StatusBadRequest)
		return
	}
	if filter.IsRead, err = utils.QueryBool(r, "is_read"); err != nil {
		utils.ErrorResponse(w, "is_read must be a boolean", http.StatusBadRequest)
		return
	}

	msgs, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{
		"messages":   msgs,
		"pagination": utils.NewPagination(page, total),
	}, http.StatusOK)
}

// GetMessage handles GET /api/v1/messages/{id}
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	msg, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, msg, http.StatusOK)
}

// UpdateMessage handles PATCH /api/v1/messages/{id}
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, msg, http.StatusOK)
}

// DeleteMessage handles DELETE /api/v1/messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Message deleted", http.StatusOK)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMessageNotFound):
		utils.ErrorResponse(w, "Message not found", http.StatusNotFound)
	case errors.Is(err, ErrReceiverNotFound):
		utils.ErrorResponse(w, "Receiver not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		utils.ErrorResponse(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, ErrSelfMessage), errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrNothingToUpdate):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("messages: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
