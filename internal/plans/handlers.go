// internal/plans/handlers.go

package plans

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

// Handler handles plan requests
type Handler struct {
	service Service
}

// NewHandler creates a new plan handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePlan handles POST /api/v1/plans (admin)
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusCreated)
}

// ListPlans handles GET /api/v1/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	plans, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, plans, http.StatusOK)
}

// GetPlan handles GET /api/v1/plans/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// UpdatePlan handles PATCH /api/v1/plans/{id} (admin)
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.SuccessResponse(w, p, http.StatusOK)
}

// DeletePlan handles DELETE /api/v1/plans/{id} (admin)
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.PathInt64(r, "id")
	if !ok {
		utils.ErrorResponse(w, "Invalid plan ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	utils.MessageResponse(w, "Plan deleted", http.StatusOK)
}

func parseFilter(r *http.Request) (*ListFilter, error) {
	q := r.URL.Query()
	filter := &ListFilter{}

	for key, dst := range map[string]**decimal.Decimal{
		"price_male":   &filter.PriceMale,
		"price_female": &filter.PriceFemale,
	} {
		if raw := q.Get(key); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", key)
			}
			*dst = &d
		}
	}

	for key, dst := range map[string]**time.Time{
		"created_after":  &filter.CreatedAfter,
		"created_before": &filter.CreatedBefore,
	} {
		if raw := q.Get(key); raw != "" {
			t, err := parseTime(raw)
			if err != nil {
				return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD) or RFC3339 timestamp", key)
			}
			*dst = &t
		}
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPlanNotFound):
		utils.ErrorResponse(w, "Plan not found", http.StatusNotFound)
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrPlanInUse):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrNothingToUpdate):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("plans: %v", err)
		utils.ErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}
