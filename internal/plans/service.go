// internal/plans/service.go

package plans

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrDuplicateName     = errors.New("a plan with this name already exists")
	ErrPlanInUse         = errors.New("plan is referenced by subscriptions")
	ErrInvalidPrice      = errors.New("prices must be greater than zero")
	ErrUnsupportedGender = errors.New("plan price is only defined for male and female profiles")
	ErrNothingToUpdate   = errors.New("no fields to update")
)

// DefaultDurationDays applies when a plan is created without a duration
const DefaultDurationDays = 30

// PriceFor picks the plan price for a profile gender
func PriceFor(p *Plan, gender string) (decimal.Decimal, error) {
	switch strings.ToLower(gender) {
	case "male":
		return p.PriceMale, nil
	case "female":
		return p.PriceFemale, nil
	default:
		return decimal.Zero, ErrUnsupportedGender
	}
}

// Service defines plan operations
type Service interface {
	Create(ctx context.Context, req *CreatePlanRequest) (*Plan, error)
	Get(ctx context.Context, id int64) (*Plan, error)
	List(ctx context.Context, filter *ListFilter) ([]*Plan, error)
	Update(ctx context.Context, id int64, req *UpdatePlanRequest) (*Plan, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

// NewService creates a new plan service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req *CreatePlanRequest) (*Plan, error) {
	if !req.PriceMale.IsPositive() || !req.PriceFemale.IsPositive() {
		return nil, ErrInvalidPrice
	}

	features, err := featuresJSON(req.Features)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		PriceMale:    req.PriceMale,
		PriceFemale:  req.PriceFemale,
		DurationDays: req.DurationDays,
		Features:     features,
	}
	if p.DurationDays == 0 {
		p.DurationDays = DefaultDurationDays
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Plan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Plan, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id int64, req *UpdatePlanRequest) (*Plan, error) {
	if req.Name == nil && req.Description == nil && req.PriceMale == nil && req.PriceFemale == nil &&
		req.DurationDays == nil && req.Features == nil {
		return nil, ErrNothingToUpdate
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.PriceMale != nil {
		if !req.PriceMale.IsPositive() {
			return nil, ErrInvalidPrice
		}
		p.PriceMale = *req.PriceMale
	}
	if req.PriceFemale != nil {
		if !req.PriceFemale.IsPositive() {
			return nil, ErrInvalidPrice
		}
		p.PriceFemale = *req.PriceFemale
	}
	if req.DurationDays != nil {
		p.DurationDays = *req.DurationDays
	}
	if req.Features != nil {
		if p.Features, err = featuresJSON(req.Features); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func featuresJSON(features []string) (types.JSONText, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	return types.JSONText(raw), nil
}
