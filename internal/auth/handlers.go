// internal/auth/handlers.go

package auth

import (
    "encoding/json"
    "errors"
    "log"
    "net/http"

    "github.com/gorilla/mux"

    "github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler holds dependencies for auth endpoints
type Handler struct {
    service Service
}

// NewHandler creates a new auth handler
func NewHandler(service Service) *Handler {
    return &Handler{service: service}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
    var req RegisterRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    resp, err := h.service.Register(r.Context(), &req)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, resp, http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
    var req LoginRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    resp, err := h.service.Login(r.Context(), &req)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, resp, http.StatusOK)
}

// GoogleAuth handles POST /api/auth/google
func (h *Handler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
    var req GoogleAuthRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    resp, err := h.service.GoogleAuth(r.Context(), &req)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, resp, http.StatusOK)
}

// RefreshToken handles POST /api/auth/token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
    var req RefreshTokenRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    resp, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, resp, http.StatusOK)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
    claims, ok := GetClaimsFromContext(r.Context())
    if !ok {
        utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    var req LogoutRequest
    if r.ContentLength > 0 {
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
            return
        }
    }

    if err := h.service.Logout(r.Context(), claims, req.RefreshToken); err != nil {
        h.writeError(w, err)
        return
    }
    utils.MessageResponse(w, "Logged out successfully", http.StatusOK)
}

// RequestPasswordReset handles POST /api/auth/reset-password
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
    var req PasswordResetRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
        log.Printf("Password reset request failed: %v", err)
    }
    utils.MessageResponse(w, "If the email exists, a reset link has been sent", http.StatusOK)
}

// ResetPassword handles POST /api/auth/reset-password/{token}
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
    token := mux.Vars(r)["token"]

    var req PasswordResetConfirmRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
        h.writeError(w, err)
        return
    }
    utils.MessageResponse(w, "Password has been reset", http.StatusOK)
}

// Me handles GET /api/v1/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
    userID, ok := GetUserIDFromContext(r.Context())
    if !ok {
        utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    user, err := h.service.GetUserByID(r.Context(), userID)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, user, http.StatusOK)
}

// ListUsers handles GET /api/v1/users (admin)
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
    page := utils.ParsePage(r)
    filter := &UserFilter{Limit: page.Limit, Offset: page.Offset()}

    if t := r.URL.Query().Get("user_type"); t != "" {
        filter.UserType = &t
    }
    active, err := utils.QueryBool(r, "active")
    if err != nil {
        utils.ErrorResponse(w, "active must be a boolean", http.StatusBadRequest)
        return
    }
    filter.Active = active

    users, total, err := h.service.ListUsers(r.Context(), filter)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, map[string]interface{}{
        "users":      users,
        "pagination": utils.NewPagination(page, total),
    }, http.StatusOK)
}

// UpdateUser handles PATCH /api/v1/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
    claims, ok := GetClaimsFromContext(r.Context())
    if !ok {
        utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
        return
    }

    id, ok := utils.PathInt64(r, "id")
    if !ok {
        utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
        return
    }

    var req UpdateUserRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    user, err := h.service.UpdateUser(r.Context(), claims, id, &req)
    if err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, user, http.StatusOK)
}

// ToggleStatus handles POST /api/v1/users/toggle-status (admin)
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
    var req ToggleStatusRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
        return
    }
    if err := utils.ValidateStruct(req); err != nil {
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
        return
    }

    if err := h.service.SetUserStatus(r.Context(), req.UserID, *req.Active); err != nil {
        h.writeError(w, err)
        return
    }
    utils.SuccessResponse(w, map[string]interface{}{
        "user_id": req.UserID,
        "active":  *req.Active,
    }, http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
    switch {
    case errors.Is(err, ErrInvalidCredentials):
        utils.ErrorResponse(w, "Invalid email or password", http.StatusUnauthorized)
    case errors.Is(err, ErrAccountLocked):
        utils.ErrorResponse(w, "Account is locked. Try again later.", http.StatusForbidden)
    case errors.Is(err, ErrSocialAccount):
        utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
    case errors.Is(err, ErrInvalidToken):
        utils.ErrorResponse(w, "Invalid or expired token", http.StatusUnauthorized)
    case errors.Is(err, ErrInvalidResetToken):
        utils.ErrorResponse(w, "Invalid or expired reset token", http.StatusBadRequest)
    case errors.Is(err, ErrUserAlreadyExists):
        utils.ErrorResponse(w, "Email or phone already registered", http.StatusConflict)
    case errors.Is(err, ErrUserNotFound):
        utils.ErrorResponse(w, "User not found", http.StatusNotFound)
    case errors.Is(err, ErrForbidden):
        utils.ErrorResponse(w, "You are not allowed to modify this user", http.StatusForbidden)
    default:
        log.Printf("auth: %v", err)
        utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
    }
}
