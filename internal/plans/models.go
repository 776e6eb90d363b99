// internal/plans/models.go

package plans

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription tier. Price depends on the buyer's
// gender.
type Plan struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  *string         `json:"description" db:"description"`
	PriceMale    decimal.Decimal `json:"price_male" db:"price_male"`
	PriceFemale  decimal.Decimal `json:"price_female" db:"price_female"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	Features     types.JSONText  `json:"features" db:"features"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// FeatureNames returns the features list, ignoring values that are not a
// JSON array of strings.
func (p *Plan) FeatureNames() []string {
	var names []string
	if len(p.Features) == 0 {
		return nil
	}
	if err := p.Features.Unmarshal(&names); err != nil {
		return nil
	}
	return names
}

// CreatePlanRequest creates a plan
type CreatePlanRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=100"`
	Description  *string         `json:"description" validate:"omitempty,max=1000"`
	PriceMale    decimal.Decimal `json:"price_male"`
	PriceFemale  decimal.Decimal `json:"price_female"`
	DurationDays int             `json:"duration_days" validate:"omitempty,gt=0,lte=3650"`
	Features     []string        `json:"features" validate:"omitempty,dive,min=1,max=100"`
}

// UpdatePlanRequest edits a plan
type UpdatePlanRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=2,max=100"`
	Description  *string          `json:"description" validate:"omitempty,max=1000"`
	PriceMale    *decimal.Decimal `json:"price_male"`
	PriceFemale  *decimal.Decimal `json:"price_female"`
	DurationDays *int             `json:"duration_days" validate:"omitempty,gt=0,lte=3650"`
	Features     []string         `json:"features" validate:"omitempty,dive,min=1,max=100"`
}

// ListFilter mirrors the list query parameters
type ListFilter struct {
	PriceMale     *decimal.Decimal
	PriceFemale   *decimal.Decimal
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
