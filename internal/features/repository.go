// internal/features/repository.go

package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines features_access persistence
type Repository interface {
	Create(ctx context.Context, a *Access) error
	GetByID(ctx context.Context, id int64) (*Access, error)
	List(ctx context.Context, filter *ListFilter) ([]*Access, error)
	Update(ctx context.Context, a *Access) error
	Delete(ctx context.Context, id int64) error

	// Grant upserts one row per feature, keeping the later access_end
	Grant(ctx context.Context, userID int64, features []string, start, end time.Time) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL features repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const accessColumns = `id, user_id, feature, access_start, access_end, is_active, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, a *Access) error {
	query := `
		INSERT INTO features_access (user_id, feature, access_start, access_end, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, a.UserID, a.Feature, a.AccessStart, a.AccessEnd, a.IsActive).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateAccess
		}
		if database.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create feature access: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Access, error) {
	var a Access
	err := r.db.GetContext(ctx, &a, `SELECT `+accessColumns+` FROM features_access WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrAccessNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feature access: %w", err)
	}
	return &a, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Access, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Feature != nil {
		add("feature = $%d", *filter.Feature)
	}
	if filter.IsActive != nil {
		add("is_active = $%d", *filter.IsActive)
	}

	query := `SELECT ` + accessColumns + ` FROM features_access`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows := []*Access{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list feature access: %w", err)
	}
	return rows, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *Access) error {
	query := `
		UPDATE features_access
		SET feature = $2, access_start = $3, access_end = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, a.ID, a.Feature, a.AccessStart, a.AccessEnd, a.IsActive).
		Scan(&a.UpdatedAt)
	if database.IsNoRows(err) {
		return ErrAccessNotFound
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateAccess
		}
		return fmt.Errorf("failed to update feature access: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM features_access WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feature access: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccessNotFound
	}
	return nil
}

func (r *postgresRepository) Grant(ctx context.Context, userID int64, features []string, start, end time.Time) error {
	if len(features) == 0 {
		return nil
	}

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO features_access (user_id, feature, access_start, access_end, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (user_id, feature) DO UPDATE
			SET access_start = CASE WHEN features_access.access_end < EXCLUDED.access_start
			                        THEN EXCLUDED.access_start ELSE features_access.access_start END,
			    access_end   = GREATEST(features_access.access_end, EXCLUDED.access_end),
			    is_active    = TRUE,
			    updated_at   = NOW()`)
		if err != nil {
			return fmt.Errorf("failed to prepare grant: %w", err)
		}
		defer stmt.Close()

		for _, f := range features {
			if _, err := stmt.ExecContext(ctx, userID, f, start, end); err != nil {
				return fmt.Errorf("failed to grant %s: %w", f, err)
			}
		}
		return nil
	})
}

func (r *postgresRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE features_access SET is_active = FALSE, updated_at = NOW() WHERE is_active AND access_end < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate feature access: %w", err)
	}
	return res.RowsAffected()
}
