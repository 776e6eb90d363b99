// internal/matching/repository.go

package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines match persistence. Writes keep is_mutual in sync on
// both rows of a pair.
type Repository interface {
	Create(ctx context.Context, m *Match) error
	GetByID(ctx context.Context, id int64) (*Match, error)
	List(ctx context.Context, filter *ListFilter) ([]*Match, int, error)
	Update(ctx context.Context, m *Match) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL match repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const matchColumns = `id, user_id, matched_user_id, compatibility_score, is_liked, is_mutual, matched_date`

// syncMutual recomputes is_mutual for both directions of a pair
func syncMutual(ctx context.Context, tx *sqlx.Tx, a, b int64) (bool, error) {
	var mutual bool
	err := tx.GetContext(ctx, &mutual, `
		SELECT COUNT(*) = 2 FROM matching
		WHERE is_liked AND ((user_id = $1 AND matched_user_id = $2) OR (user_id = $2 AND matched_user_id = $1))`,
		a, b)
	if err != nil {
		return false, fmt.Errorf("failed to check reciprocal like: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE matching SET is_mutual = $3
		WHERE (user_id = $1 AND matched_user_id = $2) OR (user_id = $2 AND matched_user_id = $1)`,
		a, b, mutual)
	if err != nil {
		return false, fmt.Errorf("failed to update mutual flag: %w", err)
	}
	return mutual, nil
}

func (r *postgresRepository) Create(ctx context.Context, m *Match) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO matching (user_id, matched_user_id, compatibility_score, is_liked)
			VALUES ($1, $2, $3, $4)
			RETURNING id, matched_date`

		err := tx.QueryRowxContext(ctx, query, m.UserID, m.MatchedUserID, m.CompatibilityScore, m.IsLiked).
			Scan(&m.ID, &m.MatchedDate)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateMatch
			}
			if database.IsForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create match: %w", err)
		}

		m.IsMutual, err = syncMutual(ctx, tx, m.UserID, m.MatchedUserID)
		return err
	})
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Match, error) {
	var m Match
	err := r.db.GetContext(ctx, &m, `SELECT `+matchColumns+` FROM matching WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &m, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Match, int, error) {
	args := []interface{}{filter.UserID}
	where := []string{"(user_id = $1 OR matched_user_id = $1)"}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.IsLiked != nil {
		add("is_liked = $%d", *filter.IsLiked)
	}
	if filter.IsMutual != nil {
		add("is_mutual = $%d", *filter.IsMutual)
	}
	if filter.MinScore != nil {
		add("compatibility_score >= $%d", *filter.MinScore)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM matching WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM matching WHERE %s ORDER BY matched_date DESC LIMIT $%d OFFSET $%d`,
		matchColumns, clause, len(args)-1, len(args))

	matches := []*Match{}
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, m *Match) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE matching SET compatibility_score = $2, is_liked = $3 WHERE id = $1`,
			m.ID, m.CompatibilityScore, m.IsLiked)
		if err != nil {
			return fmt.Errorf("failed to update match: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrMatchNotFound
		}

		m.IsMutual, err = syncMutual(ctx, tx, m.UserID, m.MatchedUserID)
		return err
	})
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var m Match
		err := tx.GetContext(ctx, &m, `DELETE FROM matching WHERE id = $1 RETURNING `+matchColumns, id)
		if database.IsNoRows(err) {
			return ErrMatchNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete match: %w", err)
		}

		_, err = syncMutual(ctx, tx, m.UserID, m.MatchedUserID)
		return err
	})
}
