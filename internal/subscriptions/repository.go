// internal/subscriptions/repository.go

package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines subscription persistence
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id int64) (*Subscription, error)
	GetLatestForUser(ctx context.Context, userID int64) (*Subscription, error)
	List(ctx context.Context, filter *ListFilter) ([]*Subscription, int, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id int64) error

	// ExtendIfExpired locks the user's latest subscription and applies
	// planExtension to it in one transaction.
	ExtendIfExpired(ctx context.Context, userID int64, planID *int64, days int, now time.Time) (*ExtendResult, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL subscription repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, subscription_type, start_date, end_date, price,
	payment_method, payment_status, transaction_id, created_at, updated_at`

type queryer interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

func insertSubscription(ctx context.Context, q queryer, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan_id, subscription_type, start_date, end_date, price,
			payment_method, payment_status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := q.QueryRowxContext(ctx, query,
		sub.UserID, sub.PlanID, sub.SubscriptionType, sub.StartDate, sub.EndDate, sub.Price,
		sub.PaymentMethod, sub.PaymentStatus, sub.TransactionID,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateTransaction
		}
		if database.IsForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func updateSubscription(ctx context.Context, q queryer, sub *Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $2, subscription_type = $3, start_date = $4, end_date = $5, price = $6,
			payment_method = $7, payment_status = $8, transaction_id = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := q.QueryRowxContext(ctx, query,
		sub.ID, sub.PlanID, sub.SubscriptionType, sub.StartDate, sub.EndDate, sub.Price,
		sub.PaymentMethod, sub.PaymentStatus, sub.TransactionID,
	).Scan(&sub.UpdatedAt)
	if database.IsNoRows(err) {
		return ErrSubscriptionNotFound
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateTransaction
		}
		if database.IsForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, sub *Subscription) error {
	return insertSubscription(ctx, r.db, sub)
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Subscription, error) {
	var sub Subscription
	err := r.db.GetContext(ctx, &sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *postgresRepository) GetLatestForUser(ctx context.Context, userID int64) (*Subscription, error) {
	var sub Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1 ORDER BY end_date DESC NULLS LAST, id DESC LIMIT 1`
	err := r.db.GetContext(ctx, &sub, query, userID)
	if database.IsNoRows(err) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Subscription, int, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.PlanID != nil {
		add("plan_id = $%d", *filter.PlanID)
	}
	if filter.SubscriptionType != nil {
		add("subscription_type = $%d", *filter.SubscriptionType)
	}
	if filter.PaymentStatus != nil {
		add("payment_status = $%d", *filter.PaymentStatus)
	}
	clause := "TRUE"
	if len(where) > 0 {
		clause = strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM subscriptions WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		subscriptionColumns, clause, len(args)-1, len(args))

	subs := []*Subscription{}
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, sub *Subscription) error {
	return updateSubscription(ctx, r.db, sub)
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *postgresRepository) ExtendIfExpired(ctx context.Context, userID int64, planID *int64, days int, now time.Time) (*ExtendResult, error) {
	result := &ExtendResult{}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Serialise concurrent extensions for the same user, including the
		// first one when no row exists yet.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
			return fmt.Errorf("failed to lock subscription: %w", err)
		}

		var current *Subscription
		var sub Subscription
		query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
			WHERE user_id = $1 ORDER BY end_date DESC NULLS LAST, id DESC LIMIT 1`
		err := tx.GetContext(ctx, &sub, query, userID)
		switch {
		case database.IsNoRows(err):
		case err != nil:
			return fmt.Errorf("failed to get subscription: %w", err)
		default:
			current = &sub
		}

		status, next := planExtension(current, userID, planID, days, now)
		result.Status = status
		switch status {
		case ExtensionCreated:
			if err := insertSubscription(ctx, tx, next); err != nil {
				return err
			}
			result.Subscription = next
		case ExtensionExtended:
			if err := updateSubscription(ctx, tx, next); err != nil {
				return err
			}
			result.Subscription = next
		default:
			result.Subscription = current
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
