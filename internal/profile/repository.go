// internal/profile/repository.go

package profile

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines the profile repository interface
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id int64) (*Profile, error)
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	List(ctx context.Context, filter *ListFilter) ([]*Profile, int, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id int64) error
	Lookup(ctx context.Context, userID int64) (*Info, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL profile repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const profileColumns = `id, user_id, name, date_of_birth, gender, bio, interests, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (user_id, name, date_of_birth, gender, bio, interests)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.UserID, p.Name, p.DateOfBirth, p.Gender, p.Bio, p.Interests,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrProfileExists
		}
		if database.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	err := r.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	if database.IsNoRows(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Profile, int, error) {
	where := "TRUE"
	args := []interface{}{}
	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		where = "gender = $1"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user_profiles WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM user_profiles WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		profileColumns, where, len(args)-1, len(args))

	profiles := []*Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE user_profiles
		SET name = $2, date_of_birth = $3, gender = $4, bio = $5, interests = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, p.ID, p.Name, p.DateOfBirth, p.Gender, p.Bio, p.Interests).
		Scan(&p.UpdatedAt)
	if database.IsNoRows(err) {
		return ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Lookup joins the profile with its account so callers see the active flag
func (r *postgresRepository) Lookup(ctx context.Context, userID int64) (*Info, error) {
	query := `
		SELECT p.user_id, p.name, p.gender, p.date_of_birth, p.interests, u.active, u.phone
		FROM user_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1`

	var info Info
	err := r.db.GetContext(ctx, &info, query, userID)
	if database.IsNoRows(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	return &info, nil
}
