// internal/features/models.go

package features

import "time"

// Access grants a user a named premium feature for a time window
type Access struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Feature     string    `json:"feature" db:"feature"`
	AccessStart time.Time `json:"access_start" db:"access_start"`
	AccessEnd   time.Time `json:"access_end" db:"access_end"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateAccessRequest creates an access row
type CreateAccessRequest struct {
	UserID      int64     `json:"user_id" validate:"required,gt=0"`
	Feature     string    `json:"feature" validate:"required,min=1,max=100"`
	AccessStart time.Time `json:"access_start" validate:"required"`
	AccessEnd   time.Time `json:"access_end" validate:"required"`
	IsActive    *bool     `json:"is_active"`
}

// UpdateAccessRequest edits an access row
type UpdateAccessRequest struct {
	Feature     *string    `json:"feature" validate:"omitempty,min=1,max=100"`
	AccessStart *time.Time `json:"access_start"`
	AccessEnd   *time.Time `json:"access_end"`
	IsActive    *bool      `json:"is_active"`
}

// ListFilter narrows access listings
type ListFilter struct {
	UserID   *int64
	Feature  *string
	IsActive *bool
}
