// internal/auth/models.go
// Data structures used by the authentication system.

package auth

import (
    "time"
)

// User types stored in users.user_type
const (
    UserTypeCustomer   = "customer"
    UserTypeAdmin      = "admin"
    UserTypeSuperAdmin = "superadmin"
)

// IsAdminType reports whether userType may use administrative endpoints
func IsAdminType(userType string) bool {
    return userType == UserTypeAdmin || userType == UserTypeSuperAdmin
}

// User represents an account
type User struct {
    ID            int64      `json:"id" db:"id"`
    Name          string     `json:"name" db:"name"`
    Email         string     `json:"email" db:"email"`
    Phone         *string    `json:"phone" db:"phone"`
    PasswordHash  *string    `json:"-" db:"password_hash"` // nil for Google accounts
    UserType      string     `json:"user_type" db:"user_type"`
    Active        bool       `json:"active" db:"active"`
    AuthProvider  string     `json:"auth_provider" db:"auth_provider"`
    EmailVerified bool       `json:"email_verified" db:"email_verified"`
    LoginAttempts int        `json:"-" db:"login_attempts"`
    LockedUntil   *time.Time `json:"-" db:"locked_until"`
    LastLogin     *time.Time `json:"last_login" db:"last_login"`
    CreatedAt     time.Time  `json:"created_at" db:"created_at"`
    UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLocked reports whether the account is temporarily locked at t
func (u *User) IsLocked(t time.Time) bool {
    return u.LockedUntil != nil && u.LockedUntil.After(t)
}

// Session is a refresh token issued to a device
type Session struct {
    ID           int64     `json:"id" db:"id"`
    UserID       int64     `json:"user_id" db:"user_id"`
    RefreshToken string    `json:"-" db:"refresh_token"`
    ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
    CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PasswordReset is a single-use reset token
type PasswordReset struct {
    Token     string    `db:"token"`
    UserID    int64     `db:"user_id"`
    ExpiresAt time.Time `db:"expires_at"`
    CreatedAt time.Time `db:"created_at"`
}

// RegisterRequest creates a customer account
type RegisterRequest struct {
    Name     string  `json:"name" validate:"required,min=2,max=100"`
    Email    string  `json:"email" validate:"required,email"`
    Phone    *string `json:"phone" validate:"omitempty,ke_phone"`
    Password string  `json:"password" validate:"required,min=8,max=100"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}

// GoogleAuthRequest carries a Google ID token from the client
type GoogleAuthRequest struct {
    IDToken string `json:"id_token" validate:"required"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token
type RefreshTokenRequest struct {
    RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest optionally names the refresh token to revoke
type LogoutRequest struct {
    RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest starts a reset
type PasswordResetRequest struct {
    Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes a reset
type PasswordResetConfirmRequest struct {
    Password string `json:"password" validate:"required,min=8,max=100"`
}

// UpdateUserRequest edits an account. Active is honoured for admins only.
type UpdateUserRequest struct {
    Name   *string `json:"name" validate:"omitempty,min=2,max=100"`
    Email  *string `json:"email" validate:"omitempty,email"`
    Phone  *string `json:"phone" validate:"omitempty,ke_phone"`
    Active *bool   `json:"active"`
}

// ToggleStatusRequest activates or deactivates an account
type ToggleStatusRequest struct {
    UserID int64 `json:"user_id" validate:"required,gt=0"`
    Active *bool `json:"active" validate:"required"`
}

// UserFilter narrows the admin user listing
type UserFilter struct {
    UserType *string
    Active   *bool
    Limit    int
    Offset   int
}

// AuthResponse is returned after successful authentication
type AuthResponse struct {
    User         *User  `json:"user"`
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token,omitempty"`
    ExpiresIn    int    `json:"expires_in"`
    TokenType    string `json:"token_type"`
}
