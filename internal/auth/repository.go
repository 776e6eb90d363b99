// internal/auth/repository.go
// Repository isolates user, session and reset-token queries from business logic.

package auth

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/jmoiron/sqlx"

    "github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines all database operations for auth
type Repository interface {
    // Users
    CreateUser(ctx context.Context, user *User) error
    GetUserByID(ctx context.Context, id int64) (*User, error)
    GetUserByEmail(ctx context.Context, email string) (*User, error)
    ListUsers(ctx context.Context, filter *UserFilter) ([]*User, int, error)
    UpdateUser(ctx context.Context, user *User) error
    SetActive(ctx context.Context, userID int64, active bool) error
    UpdatePassword(ctx context.Context, userID int64, hash string) error

    // Login bookkeeping
    RecordFailedLogin(ctx context.Context, userID int64, maxAttempts int, lockUntil time.Time) (int, *time.Time, error)
    RecordSuccessfulLogin(ctx context.Context, userID int64, at time.Time) error

    // Sessions
    CreateSession(ctx context.Context, session *Session) error
    GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*Session, error)
    DeleteSession(ctx context.Context, userID int64, refreshToken string) error
    DeleteUserSessions(ctx context.Context, userID int64) error

    // Password resets
    CreatePasswordReset(ctx context.Context, reset *PasswordReset) error
    GetPasswordReset(ctx context.Context, token string) (*PasswordReset, error)
    DeletePasswordReset(ctx context.Context, token string) error
    DeleteExpiredPasswordResets(ctx context.Context, before time.Time) (int64, error)
}

type postgresRepository struct {
    db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
    return &postgresRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, user_type, active, auth_provider,
    email_verified, login_attempts, locked_until, last_login, created_at, updated_at`

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
    query := `
        INSERT INTO users (name, email, phone, password_hash, user_type, active, auth_provider, email_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

    err := r.db.QueryRowxContext(ctx, query,
        user.Name, user.Email, user.Phone, user.PasswordHash,
        user.UserType, user.Active, user.AuthProvider, user.EmailVerified,
    ).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
    if err != nil {
        if database.IsUniqueViolation(err) {
            return ErrUserAlreadyExists
        }
        return fmt.Errorf("failed to create user: %w", err)
    }
    return nil
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
    var user User
    err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
    if database.IsNoRows(err) {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("failed to get user: %w", err)
    }
    return &user, nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
    var user User
    err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
    if database.IsNoRows(err) {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("failed to get user: %w", err)
    }
    return &user, nil
}

func (r *postgresRepository) ListUsers(ctx context.Context, filter *UserFilter) ([]*User, int, error) {
    where := []string{"1=1"}
    args := []interface{}{}

    if filter.UserType != nil {
        args = append(args, *filter.UserType)
        where = append(where, fmt.Sprintf("user_type = $%d", len(args)))
    }
    if filter.Active != nil {
        args = append(args, *filter.Active)
        where = append(where, fmt.Sprintf("active = $%d", len(args)))
    }
    clause := strings.Join(where, " AND ")

    var total int
    if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users WHERE `+clause, args...); err != nil {
        return nil, 0, fmt.Errorf("failed to count users: %w", err)
    }

    args = append(args, filter.Limit, filter.Offset)
    query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
        userColumns, clause, len(args)-1, len(args))

    users := []*User{}
    if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
        return nil, 0, fmt.Errorf("failed to list users: %w", err)
    }
    return users, total, nil
}

func (r *postgresRepository) UpdateUser(ctx context.Context, user *User) error {
    query := `
        UPDATE users
        SET name = $2, email = $3, phone = $4, active = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`

    err := r.db.QueryRowxContext(ctx, query, user.ID, user.Name, user.Email, user.Phone, user.Active).
        Scan(&user.UpdatedAt)
    if database.IsNoRows(err) {
        return ErrUserNotFound
    }
    if err != nil {
        if database.IsUniqueViolation(err) {
            return ErrUserAlreadyExists
        }
        return fmt.Errorf("failed to update user: %w", err)
    }
    return nil
}

func (r *postgresRepository) SetActive(ctx context.Context, userID int64, active bool) error {
    res, err := r.db.ExecContext(ctx, `UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1`, userID, active)
    if err != nil {
        return fmt.Errorf("failed to update user status: %w", err)
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrUserNotFound
    }
    return nil
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
    query := `
        UPDATE users
        SET password_hash = $2, login_attempts = 0, locked_until = NULL, updated_at = NOW()
        WHERE id = $1`
    if _, err := r.db.ExecContext(ctx, query, userID, hash); err != nil {
        return fmt.Errorf("failed to update password: %w", err)
    }
    return nil
}

// RecordFailedLogin increments the attempt counter and sets locked_until once
// the counter reaches maxAttempts. The counter restarts after a lock.
func (r *postgresRepository) RecordFailedLogin(ctx context.Context, userID int64, maxAttempts int, lockUntil time.Time) (int, *time.Time, error) {
    query := `
        UPDATE users
        SET login_attempts = CASE WHEN login_attempts + 1 >= $2 THEN 0 ELSE login_attempts + 1 END,
            locked_until   = CASE WHEN login_attempts + 1 >= $2 THEN $3 ELSE locked_until END
        WHERE id = $1
        RETURNING login_attempts, locked_until`

    var attempts int
    var lockedUntil *time.Time
    if err := r.db.QueryRowxContext(ctx, query, userID, maxAttempts, lockUntil).Scan(&attempts, &lockedUntil); err != nil {
        return 0, nil, fmt.Errorf("failed to record login attempt: %w", err)
    }
    return attempts, lockedUntil, nil
}

func (r *postgresRepository) RecordSuccessfulLogin(ctx context.Context, userID int64, at time.Time) error {
    query := `UPDATE users SET login_attempts = 0, locked_until = NULL, last_login = $2 WHERE id = $1`
    if _, err := r.db.ExecContext(ctx, query, userID, at); err != nil {
        return fmt.Errorf("failed to record login: %w", err)
    }
    return nil
}

func (r *postgresRepository) CreateSession(ctx context.Context, session *Session) error {
    query := `
        INSERT INTO sessions (user_id, refresh_token, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
    if err := r.db.QueryRowxContext(ctx, query, session.UserID, session.RefreshToken, session.ExpiresAt).
        Scan(&session.ID, &session.CreatedAt); err != nil {
        return fmt.Errorf("failed to create session: %w", err)
    }
    return nil
}

func (r *postgresRepository) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
    var session Session
    query := `SELECT id, user_id, refresh_token, expires_at, created_at FROM sessions WHERE refresh_token = $1`
    err := r.db.GetContext(ctx, &session, query, refreshToken)
    if database.IsNoRows(err) {
        return nil, ErrInvalidToken
    }
    if err != nil {
        return nil, fmt.Errorf("failed to get session: %w", err)
    }
    return &session, nil
}

func (r *postgresRepository) DeleteSession(ctx context.Context, userID int64, refreshToken string) error {
    _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1 AND refresh_token = $2`, userID, refreshToken)
    if err != nil {
        return fmt.Errorf("failed to delete session: %w", err)
    }
    return nil
}

func (r *postgresRepository) DeleteUserSessions(ctx context.Context, userID int64) error {
    if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
        return fmt.Errorf("failed to delete sessions: %w", err)
    }
    return nil
}

func (r *postgresRepository) CreatePasswordReset(ctx context.Context, reset *PasswordReset) error {
    query := `INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3) RETURNING created_at`
    if err := r.db.QueryRowxContext(ctx, query, reset.Token, reset.UserID, reset.ExpiresAt).Scan(&reset.CreatedAt); err != nil {
        return fmt.Errorf("failed to create password reset: %w", err)
    }
    return nil
}

func (r *postgresRepository) GetPasswordReset(ctx context.Context, token string) (*PasswordReset, error) {
    var reset PasswordReset
    err := r.db.GetContext(ctx, &reset, `SELECT token, user_id, expires_at, created_at FROM password_resets WHERE token = $1`, token)
    if database.IsNoRows(err) {
        return nil, ErrInvalidResetToken
    }
    if err != nil {
        return nil, fmt.Errorf("failed to get password reset: %w", err)
    }
    return &reset, nil
}

func (r *postgresRepository) DeletePasswordReset(ctx context.Context, token string) error {
    if _, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE token = $1`, token); err != nil {
        return fmt.Errorf("failed to delete password reset: %w", err)
    }
    return nil
}

func (r *postgresRepository) DeleteExpiredPasswordResets(ctx context.Context, before time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at < $1`, before)
    if err != nil {
        return 0, fmt.Errorf("failed to purge password resets: %w", err)
    }
    return res.RowsAffected()
}
