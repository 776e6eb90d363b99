// internal/matching/models.go

package matching

import "time"

// Match is one user's decision about another. A pair liked in both
// directions is mutual on both rows.
type Match struct {
	ID                 int64     `json:"id" db:"id"`
	UserID             int64     `json:"user_id" db:"user_id"`
	MatchedUserID      int64     `json:"matched_user_id" db:"matched_user_id"`
	CompatibilityScore float64   `json:"compatibility_score" db:"compatibility_score"`
	IsLiked            bool      `json:"is_liked" db:"is_liked"`
	IsMutual           bool      `json:"is_mutual" db:"is_mutual"`
	MatchedDate        time.Time `json:"matched_date" db:"matched_date"`
}

// CreateMatchRequest records a match for the caller. Admins may set user_id.
type CreateMatchRequest struct {
	UserID             *int64   `json:"user_id" validate:"omitempty,gt=0"`
	MatchedUserID      int64    `json:"matched_user_id" validate:"required,gt=0"`
	CompatibilityScore *float64 `json:"compatibility_score" validate:"omitempty,gte=0,lte=100"`
	IsLiked            bool     `json:"is_liked"`
}

type UpdateMatchRequest struct {
	CompatibilityScore *float64 `json:"compatibility_score" validate:"omitempty,gte=0,lte=100"`
	IsLiked            *bool    `json:"is_liked"`
}

type ListFilter struct {
	UserID   int64
	IsLiked  *bool
	IsMutual *bool
	MinScore *float64
	Limit    int
	Offset   int
}
