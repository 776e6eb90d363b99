// internal/profile/service.go

package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists for this user")
	ErrUserNotFound    = errors.New("user not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrInvalidDate     = errors.New("date_of_birth must be YYYY-MM-DD")
)

// Lookup is the read-only view of profiles used by payments and matching
type Lookup interface {
	Lookup(ctx context.Context, userID int64) (*Info, error)
}

// Service defines the profile service interface
type Service interface {
	Lookup

	Create(ctx context.Context, userID int64, req *CreateProfileRequest) (*Profile, error)
	Get(ctx context.Context, id int64) (*Profile, error)
	GetMine(ctx context.Context, userID int64) (*Profile, error)
	List(ctx context.Context, filter *ListFilter) ([]*Profile, int, error)
	Update(ctx context.Context, callerID int64, isAdmin bool, id int64, req *UpdateProfileRequest) (*Profile, error)
	Delete(ctx context.Context, callerID int64, isAdmin bool, id int64) error
}

type service struct {
	repo Repository
}

// NewService creates a new profile service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID int64, req *CreateProfileRequest) (*Profile, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		DateOfBirth: &dob,
		Gender:      req.Gender,
		Bio:         req.Bio,
		Interests:   normalizeInterests(req.Interests),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetMine(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Profile, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, callerID int64, isAdmin bool, id int64, req *UpdateProfileRequest) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerID && !isAdmin {
		return nil, ErrUnauthorized
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		p.DateOfBirth = &dob
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Bio != nil {
		p.Bio = req.Bio
	}
	if req.Interests != nil {
		p.Interests = normalizeInterests(req.Interests)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, callerID int64, isAdmin bool, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != callerID && !isAdmin {
		return ErrUnauthorized
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) Lookup(ctx context.Context, userID int64) (*Info, error) {
	return s.repo.Lookup(ctx, userID)
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil || t.After(time.Now()) {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// normalizeInterests lowercases, trims and de-duplicates
func normalizeInterests(in []string) Interests {
	seen := make(map[string]bool, len(in))
	out := make(Interests, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
