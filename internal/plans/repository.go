// internal/plans/repository.go

package plans

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines plan persistence
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id int64) (*Plan, error)
	List(ctx context.Context, filter *ListFilter) ([]*Plan, error)
	Update(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL plan repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const planColumns = `id, name, description, price_male, price_female, duration_days, features, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, p *Plan) error {
	query := `
		INSERT INTO plans (name, description, price_male, price_female, duration_days, features)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.PriceMale, p.PriceFemale, p.DurationDays, p.Features,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Plan, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.PriceMale != nil {
		add("price_male = $%d", *filter.PriceMale)
	}
	if filter.PriceFemale != nil {
		add("price_female = $%d", *filter.PriceFemale)
	}
	if filter.CreatedAfter != nil {
		add("created_at >= $%d", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		add("created_at <= $%d", *filter.CreatedBefore)
	}

	query := `SELECT ` + planColumns + ` FROM plans`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	plans := []*Plan{}
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Plan) error {
	query := `
		UPDATE plans
		SET name = $2, description = $3, price_male = $4, price_female = $5,
		    duration_days = $6, features = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Description, p.PriceMale, p.PriceFemale, p.DurationDays, p.Features,
	).Scan(&p.UpdatedAt)
	if database.IsNoRows(err) {
		return ErrPlanNotFound
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrPlanInUse
		}
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
