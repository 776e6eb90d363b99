// internal/features/service.go

package features

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

var (
	ErrAccessNotFound  = errors.New("feature access record not found")
	ErrDuplicateAccess = errors.New("feature access already exists for this user and feature")
	ErrUserNotFound    = errors.New("user not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrInvalidWindow   = errors.New("access_end must be after access_start")
	ErrNothingToUpdate = errors.New("no fields to update")
)

// Granter is what payment completion needs from features
type Granter interface {
	Grant(ctx context.Context, userID int64, features []string, start, end time.Time) error
}

// Service defines feature access operations
type Service interface {
	Granter

	Create(ctx context.Context, req *CreateAccessRequest) (*Access, error)
	Get(ctx context.Context, callerID int64, isAdmin bool, id int64) (*Access, error)
	List(ctx context.Context, filter *ListFilter) ([]*Access, error)
	Update(ctx context.Context, id int64, req *UpdateAccessRequest) (*Access, error)
	Delete(ctx context.Context, id int64) error
	DeactivateExpired(ctx context.Context) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new features service
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, req *CreateAccessRequest) (*Access, error) {
	if !req.AccessEnd.After(req.AccessStart) {
		return nil, ErrInvalidWindow
	}

	a := &Access{
		UserID:      req.UserID,
		Feature:     strings.TrimSpace(req.Feature),
		AccessStart: req.AccessStart,
		AccessEnd:   req.AccessEnd,
		IsActive:    true,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Get(ctx context.Context, callerID int64, isAdmin bool, id int64) (*Access, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != callerID && !isAdmin {
		return nil, ErrUnauthorized
	}
	return a, nil
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Access, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id int64, req *UpdateAccessRequest) (*Access, error) {
	if req.Feature == nil && req.AccessStart == nil && req.AccessEnd == nil && req.IsActive == nil {
		return nil, ErrNothingToUpdate
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Feature != nil {
		a.Feature = strings.TrimSpace(*req.Feature)
	}
	if req.AccessStart != nil {
		a.AccessStart = *req.AccessStart
	}
	if req.AccessEnd != nil {
		a.AccessEnd = *req.AccessEnd
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if !a.AccessEnd.After(a.AccessStart) {
		return nil, ErrInvalidWindow
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) Grant(ctx context.Context, userID int64, features []string, start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidWindow
	}
	return s.repo.Grant(ctx, userID, features, start, end)
}

// DeactivateExpired flips is_active off for rows past access_end
func (s *service) DeactivateExpired(ctx context.Context) error {
	n, err := s.repo.DeactivateExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Deactivated %d expired feature grants", n)
	}
	return nil
}
