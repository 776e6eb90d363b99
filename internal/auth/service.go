// internal/auth/service.go
// Business logic for accounts, tokens, lockout and password resets.

package auth

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/go-redis/redis/v8"
    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "github.com/imadgeboyega/matchup-backend/internal/common/utils"
    "github.com/imadgeboyega/matchup-backend/internal/notification"
)

// Common errors
var (
    ErrUserNotFound       = errors.New("user not found")
    ErrUserAlreadyExists  = errors.New("user already exists")
    ErrInvalidCredentials = errors.New("invalid credentials")
    ErrAccountLocked      = errors.New("account is locked")
    ErrAccountInactive    = errors.New("account is inactive")
    ErrInvalidToken       = errors.New("invalid token")
    ErrInvalidResetToken  = errors.New("invalid or expired reset token")
    ErrSocialAccount      = errors.New("this account uses social login")
    ErrForbidden          = errors.New("forbidden")
)

// Service is the auth use-case boundary
type Service interface {
    Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
    Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
    GoogleAuth(ctx context.Context, req *GoogleAuthRequest) (*AuthResponse, error)
    RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
    Logout(ctx context.Context, claims *utils.JWTClaims, refreshToken string) error
    ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)

    RequestPasswordReset(ctx context.Context, email string) error
    ResetPassword(ctx context.Context, token, newPassword string) error
    CleanupExpiredResets(ctx context.Context) error

    GetUserByID(ctx context.Context, userID int64) (*User, error)
    ListUsers(ctx context.Context, filter *UserFilter) ([]*User, int, error)
    UpdateUser(ctx context.Context, actor *utils.JWTClaims, userID int64, req *UpdateUserRequest) (*User, error)
    SetUserStatus(ctx context.Context, userID int64, active bool) error
}

// Config holds service configuration
type Config struct {
    JWTSecret           string
    Issuer              string
    AccessTokenExpiry   time.Duration
    RefreshTokenExpiry  time.Duration
    PasswordResetExpiry time.Duration
    BCryptCost          int
    MaxLoginAttempts    int
    LockDuration        time.Duration
    ResetURLBase        string // link emailed is ResetURLBase + "/" + token
}

type service struct {
    repo   Repository
    redis  *redis.Client // optional, used for access token revocation
    mailer notification.EmailService
    google GoogleVerifier
    config *Config
    now    func() time.Time
}

// NewService creates a new auth service. redis and google may be nil.
func NewService(repo Repository, redis *redis.Client, mailer notification.EmailService, google GoogleVerifier, config *Config) Service {
    return &service{
        repo:   repo,
        redis:  redis,
        mailer: mailer,
        google: google,
        config: config,
        now:    time.Now,
    }
}

// Register creates a customer account and signs it in
func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
    hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BCryptCost)
    if err != nil {
        return nil, fmt.Errorf("failed to hash password: %w", err)
    }
    hashStr := string(hash)

    user := &User{
        Name:         strings.TrimSpace(req.Name),
        Email:        strings.ToLower(strings.TrimSpace(req.Email)),
        Phone:        req.Phone,
        PasswordHash: &hashStr,
        UserType:     UserTypeCustomer,
        Active:       true,
        AuthProvider: "local",
    }

    if err := s.repo.CreateUser(ctx, user); err != nil {
        return nil, err
    }

    return s.createAuthSession(ctx, user)
}

// Login verifies credentials and applies the lockout policy
func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
    user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
    if err != nil {
        if errors.Is(err, ErrUserNotFound) {
            return nil, ErrInvalidCredentials
        }
        return nil, err
    }

    now := s.now()
    if user.IsLocked(now) {
        return nil, ErrAccountLocked
    }

    if user.PasswordHash == nil {
        return nil, ErrSocialAccount
    }

    if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
        _, lockedUntil, recErr := s.repo.RecordFailedLogin(ctx, user.ID, s.config.MaxLoginAttempts, now.Add(s.config.LockDuration))
        if recErr != nil {
            log.Printf("Failed to record login attempt for user %d: %v", user.ID, recErr)
        }
        if lockedUntil != nil && lockedUntil.After(now) {
            return nil, ErrAccountLocked
        }
        return nil, ErrInvalidCredentials
    }

    if err := s.repo.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
        return nil, err
    }
    user.LoginAttempts = 0
    user.LockedUntil = nil
    user.LastLogin = &now

    return s.createAuthSession(ctx, user)
}

// GoogleAuth signs in (or signs up) a user from a Google ID token
func (s *service) GoogleAuth(ctx context.Context, req *GoogleAuthRequest) (*AuthResponse, error) {
    if s.google == nil {
        return nil, errors.New("google sign-in is not configured")
    }

    identity, err := s.google.Verify(ctx, req.IDToken)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }

    user, err := s.repo.GetUserByEmail(ctx, identity.Email)
    if errors.Is(err, ErrUserNotFound) {
        user = &User{
            Name:          identity.Name,
            Email:         strings.ToLower(identity.Email),
            UserType:      UserTypeCustomer,
            Active:        true,
            AuthProvider:  "google",
            EmailVerified: true,
        }
        if user.Name == "" {
            user.Name = strings.Split(identity.Email, "@")[0]
        }
        if err := s.repo.CreateUser(ctx, user); err != nil {
            return nil, err
        }
    } else if err != nil {
        return nil, err
    }

    return s.createAuthSession(ctx, user)
}

// RefreshToken issues a new access token for a stored refresh token
func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
    claims, err := utils.ValidateJWT(refreshToken, s.config.JWTSecret)
    if err != nil || claims.Type != utils.TokenTypeRefresh {
        return nil, ErrInvalidToken
    }

    session, err := s.repo.GetSessionByRefreshToken(ctx, refreshToken)
    if err != nil {
        return nil, err
    }
    if session.UserID != claims.UserID || session.ExpiresAt.Before(s.now()) {
        return nil, ErrInvalidToken
    }

    user, err := s.repo.GetUserByID(ctx, session.UserID)
    if err != nil {
        return nil, err
    }

    accessToken, err := s.generateAccessToken(user)
    if err != nil {
        return nil, err
    }

    return &AuthResponse{
        User:        user,
        AccessToken: accessToken,
        ExpiresIn:   int(s.config.AccessTokenExpiry.Seconds()),
        TokenType:   "Bearer",
    }, nil
}

// Logout revokes the refresh token (all of the user's sessions when empty)
// and blacklists the current access token until it expires.
func (s *service) Logout(ctx context.Context, claims *utils.JWTClaims, refreshToken string) error {
    var err error
    if refreshToken != "" {
        err = s.repo.DeleteSession(ctx, claims.UserID, refreshToken)
    } else {
        err = s.repo.DeleteUserSessions(ctx, claims.UserID)
    }
    if err != nil {
        return err
    }

    if s.redis != nil && claims.ID != "" {
        ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
        if ttl > 0 {
            if err := s.redis.Set(ctx, revokedKey(claims.ID), 1, ttl).Err(); err != nil {
                log.Printf("Failed to revoke access token: %v", err)
            }
        }
    }
    return nil
}

// ValidateToken checks signature, expiry and revocation
func (s *service) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
    claims, err := utils.ValidateJWT(token, s.config.JWTSecret)
    if err != nil {
        return nil, err
    }

    if s.redis != nil && claims.ID != "" {
        n, err := s.redis.Exists(ctx, revokedKey(claims.ID)).Result()
        if err == nil && n > 0 {
            return nil, ErrInvalidToken
        }
    }
    return claims, nil
}

// RequestPasswordReset emails a single-use link. Unknown emails succeed
// silently so the endpoint cannot be used to enumerate accounts.
func (s *service) RequestPasswordReset(ctx context.Context, email string) error {
    user, err := s.repo.GetUserByEmail(ctx, email)
    if errors.Is(err, ErrUserNotFound) {
        return nil
    }
    if err != nil {
        return err
    }

    reset := &PasswordReset{
        Token:     uuid.NewString(),
        UserID:    user.ID,
        ExpiresAt: s.now().Add(s.config.PasswordResetExpiry),
    }
    if err := s.repo.CreatePasswordReset(ctx, reset); err != nil {
        return err
    }

    if s.mailer == nil {
        return nil
    }

    link := fmt.Sprintf("%s/%s", strings.TrimRight(s.config.ResetURLBase, "/"), reset.Token)
    msg, err := notification.PasswordResetEmail(user.Email, user.Name, link, s.config.PasswordResetExpiry.String())
    if err != nil {
        return err
    }
    if err := s.mailer.SendEmail(ctx, msg); err != nil {
        log.Printf("Failed to send password reset email to user %d: %v", user.ID, err)
    }
    return nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
    reset, err := s.repo.GetPasswordReset(ctx, token)
    if err != nil {
        return err
    }
    if reset.ExpiresAt.Before(s.now()) {
        s.repo.DeletePasswordReset(ctx, token)
        return ErrInvalidResetToken
    }

    hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.BCryptCost)
    if err != nil {
        return fmt.Errorf("failed to hash password: %w", err)
    }

    if err := s.repo.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
        return err
    }
    if err := s.repo.DeletePasswordReset(ctx, token); err != nil {
        return err
    }

    // Sign out every device
    return s.repo.DeleteUserSessions(ctx, reset.UserID)
}

// CleanupExpiredResets purges stale reset tokens
func (s *service) CleanupExpiredResets(ctx context.Context) error {
    n, err := s.repo.DeleteExpiredPasswordResets(ctx, s.now())
    if err != nil {
        return err
    }
    if n > 0 {
        log.Printf("Purged %d expired password reset tokens", n)
    }
    return nil
}

func (s *service) GetUserByID(ctx context.Context, userID int64) (*User, error) {
    return s.repo.GetUserByID(ctx, userID)
}

func (s *service) ListUsers(ctx context.Context, filter *UserFilter) ([]*User, int, error) {
    return s.repo.ListUsers(ctx, filter)
}

// UpdateUser lets users edit themselves and admins edit anyone. Only admins
// may change the active flag.
func (s *service) UpdateUser(ctx context.Context, actor *utils.JWTClaims, userID int64, req *UpdateUserRequest) (*User, error) {
    isAdmin := IsAdminType(actor.UserType)
    if actor.UserID != userID && !isAdmin {
        return nil, ErrForbidden
    }
    if req.Active != nil && !isAdmin {
        return nil, ErrForbidden
    }

    user, err := s.repo.GetUserByID(ctx, userID)
    if err != nil {
        return nil, err
    }

    if req.Name != nil {
        user.Name = strings.TrimSpace(*req.Name)
    }
    if req.Email != nil {
        user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
    }
    if req.Phone != nil {
        user.Phone = req.Phone
    }
    if req.Active != nil {
        user.Active = *req.Active
    }

    if err := s.repo.UpdateUser(ctx, user); err != nil {
        return nil, err
    }
    return user, nil
}

func (s *service) SetUserStatus(ctx context.Context, userID int64, active bool) error {
    if err := s.repo.SetActive(ctx, userID, active); err != nil {
        return err
    }
    if !active {
        return s.repo.DeleteUserSessions(ctx, userID)
    }
    return nil
}

func (s *service) createAuthSession(ctx context.Context, user *User) (*AuthResponse, error) {
    accessToken, err := s.generateAccessToken(user)
    if err != nil {
        return nil, err
    }

    refreshToken, err := s.generateToken(user, utils.TokenTypeRefresh, s.config.RefreshTokenExpiry)
    if err != nil {
        return nil, err
    }

    session := &Session{
        UserID:       user.ID,
        RefreshToken: refreshToken,
        ExpiresAt:    s.now().Add(s.config.RefreshTokenExpiry),
    }
    if err := s.repo.CreateSession(ctx, session); err != nil {
        return nil, err
    }

    return &AuthResponse{
        User:         user,
        AccessToken:  accessToken,
        RefreshToken: refreshToken,
        ExpiresIn:    int(s.config.AccessTokenExpiry.Seconds()),
        TokenType:    "Bearer",
    }, nil
}

func (s *service) generateAccessToken(user *User) (string, error) {
    return s.generateToken(user, utils.TokenTypeAccess, s.config.AccessTokenExpiry)
}

func (s *service) generateToken(user *User, tokenType string, ttl time.Duration) (string, error) {
    now := s.now()
    token, err := utils.GenerateJWT(&utils.JWTClaims{
        UserID:    user.ID,
        Email:     user.Email,
        UserType:  user.UserType,
        Active:    user.Active,
        Type:      tokenType,
        ID:        uuid.NewString(),
        ExpiresAt: now.Add(ttl).Unix(),
        IssuedAt:  now.Unix(),
        NotBefore: now.Unix(),
        Issuer:    s.config.Issuer,
        Subject:   fmt.Sprintf("%d", user.ID),
    }, s.config.JWTSecret)
    if err != nil {
        return "", fmt.Errorf("failed to generate %s token: %w", tokenType, err)
    }
    return token, nil
}

func revokedKey(jti string) string {
    return fmt.Sprintf("revoked_token:%s", jti)
}
