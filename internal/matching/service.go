// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"time"

	"github.com/imadgeboyega/matchup-backend/internal/metrics"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrDuplicateMatch  = errors.New("match already exists between these users")
	ErrUserNotFound    = errors.New("user not found")
	ErrSelfMatch       = errors.New("cannot match with yourself")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrNothingToUpdate = errors.New("no fields to update")
)

// Service defines matching operations
type Service interface {
	Create(ctx context.Context, callerID int64, isAdmin bool, req *CreateMatchRequest) (*Match, error)
	Get(ctx context.Context, callerID int64, isAdmin bool, id int64) (*Match, error)
	List(ctx context.Context, filter *ListFilter) ([]*Match, int, error)
	Update(ctx context.Context, callerID int64, isAdmin bool, id int64, req *UpdateMatchRequest) (*Match, error)
	Delete(ctx context.Context, callerID int64, isAdmin bool, id int64) error
}

type service struct {
	repo     Repository
	profiles profile.Lookup
	now      func() time.Time
}

// NewService creates a new matching service
func NewService(repo Repository, profiles profile.Lookup) Service {
	return &service{repo: repo, profiles: profiles, now: time.Now}
}

func (s *service) Create(ctx context.Context, callerID int64, isAdmin bool, req *CreateMatchRequest) (*Match, error) {
	userID := callerID
	if req.UserID != nil && *req.UserID != callerID {
		if !isAdmin {
			return nil, ErrUnauthorized
		}
		userID = *req.UserID
	}
	if userID == req.MatchedUserID {
		return nil, ErrSelfMatch
	}

	m := &Match{
		UserID:        userID,
		MatchedUserID: req.MatchedUserID,
		IsLiked:       req.IsLiked,
	}
	if req.CompatibilityScore != nil {
		m.CompatibilityScore = *req.CompatibilityScore
	} else {
		score, err := s.score(ctx, userID, req.MatchedUserID)
		if err != nil {
			return nil, err
		}
		m.CompatibilityScore = score
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// score falls back to 0 when either side has no profile yet
func (s *service) score(ctx context.Context, a, b int64) (float64, error) {
	pa, err := s.profiles.Lookup(ctx, a)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pb, err := s.profiles.Lookup(ctx, b)
	if errors.Is(err, profile.ErrProfileNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	score, _ := Compatibility(pa, pb, s.now())
	metrics.CompatibilityScore(score)
	return score, nil
}

func (s *service) Get(ctx context.Context, callerID int64, isAdmin bool, id int64) (*Match, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && m.UserID != callerID && m.MatchedUserID != callerID {
		return nil, ErrUnauthorized
	}
	return m, nil
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Match, int, error) {
	return s.repo.List(ctx, filter)
}

// Update changes the caller's own decision; the other party cannot flip it
func (s *service) Update(ctx context.Context, callerID int64, isAdmin bool, id int64, req *UpdateMatchRequest) (*Match, error) {
	if req.CompatibilityScore == nil && req.IsLiked == nil {
		return nil, ErrNothingToUpdate
	}

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && m.UserID != callerID {
		return nil, ErrUnauthorized
	}

	if req.CompatibilityScore != nil {
		m.CompatibilityScore = *req.CompatibilityScore
	}
	if req.IsLiked != nil {
		m.IsLiked = *req.IsLiked
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Delete(ctx context.Context, callerID int64, isAdmin bool, id int64) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && m.UserID != callerID && m.MatchedUserID != callerID {
		return ErrUnauthorized
	}
	return s.repo.Delete(ctx, id)
}
