// internal/superlikes/store.go

package superlikes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Store is the superlikes ledger. Every balance change is a single
// conditional statement inside a transaction so balances never go negative.
type Store interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Transfer(ctx context.Context, senderID, receiverID, amount int64) (senderBalance int64, err error)
	Withdraw(ctx context.Context, userID, amount int64) (*Withdrawal, int64, error)
	Credit(ctx context.Context, userID, amount int64) (int64, error)

	CreateTopUp(ctx context.Context, t *TopUp) error
	GetTopUp(ctx context.Context, checkoutRequestID string) (*TopUp, error)
	// CompleteTopUp credits the buyer once. ok is false when the job was
	// already settled.
	CompleteTopUp(ctx context.Context, checkoutRequestID string) (t *TopUp, balance int64, ok bool, err error)
	FailTopUp(ctx context.Context, checkoutRequestID string) (t *TopUp, ok bool, err error)
	ListPendingTopUps(ctx context.Context, createdBefore time.Time) ([]*TopUp, error)
	ExpireTopUps(ctx context.Context, createdBefore time.Time) (int64, error)

	ListWithdrawals(ctx context.Context, filter *WithdrawalFilter) ([]*Withdrawal, int, error)
	CompleteWithdrawals(ctx context.Context, userID int64) (int64, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates the PostgreSQL ledger
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

const (
	withdrawalColumns = `id, user_id, amount, status, created_at, completed_at`
	topUpColumns      = `id, user_id, amount, price, phone, checkout_request_id, external_reference,
		status, created_at, completed_at`
)

// debit takes amount from userID only if the balance covers it. No row
// back means the balance was short or missing.
func debit(ctx context.Context, tx *sqlx.Tx, userID, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRowxContext(ctx, `
		UPDATE superlikes_record
		SET amount = amount - $2, date_updated = NOW()
		WHERE user_id = $1 AND amount >= $2
		RETURNING amount`, userID, amount).Scan(&balance)
	if database.IsNoRows(err) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit superlikes: %w", err)
	}
	return balance, nil
}

func credit(ctx context.Context, tx *sqlx.Tx, userID, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO superlikes_record (user_id, amount, date_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET amount = superlikes_record.amount + EXCLUDED.amount, date_updated = NOW()
		RETURNING amount`, userID, amount).Scan(&balance)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to credit superlikes: %w", err)
	}
	return balance, nil
}

func (s *postgresStore) Balance(ctx context.Context, userID int64) (int64, error) {
	var amount int64
	err := s.db.GetContext(ctx, &amount, `SELECT amount FROM superlikes_record WHERE user_id = $1`, userID)
	if database.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get superlikes balance: %w", err)
	}
	return amount, nil
}

func (s *postgresStore) Transfer(ctx context.Context, senderID, receiverID, amount int64) (int64, error) {
	var senderBalance int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, receiverID); err != nil {
			return fmt.Errorf("failed to check receiver: %w", err)
		}
		if !exists {
			return ErrReceiverNotFound
		}

		// Lock both balances in user_id order so opposite transfers cannot deadlock
		if _, err := tx.ExecContext(ctx,
			`SELECT 1 FROM superlikes_record WHERE user_id IN ($1, $2) ORDER BY user_id FOR UPDATE`,
			senderID, receiverID); err != nil {
			return fmt.Errorf("failed to lock balances: %w", err)
		}

		balance, err := debit(ctx, tx, senderID, amount)
		if err != nil {
			return err
		}
		if _, err := credit(ctx, tx, receiverID, amount); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return ErrReceiverNotFound
			}
			return err
		}
		senderBalance = balance
		return nil
	})
	return senderBalance, err
}

func (s *postgresStore) Withdraw(ctx context.Context, userID, amount int64) (*Withdrawal, int64, error) {
	var w Withdrawal
	var balance int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		if balance, err = debit(ctx, tx, userID, amount); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &w, `
			INSERT INTO superlike_withdrawals (user_id, amount, status)
			VALUES ($1, $2, $3)
			RETURNING `+withdrawalColumns, userID, amount, WithdrawalPending)
		if err != nil {
			return fmt.Errorf("failed to record withdrawal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &w, balance, nil
}

func (s *postgresStore) Credit(ctx context.Context, userID, amount int64) (int64, error) {
	var balance int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		balance, err = credit(ctx, tx, userID, amount)
		return err
	})
	return balance, err
}

func (s *postgresStore) CreateTopUp(ctx context.Context, t *TopUp) error {
	query := `
		INSERT INTO superlike_topups (user_id, amount, price, phone, checkout_request_id, external_reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		t.UserID, t.Amount, t.Price, t.Phone, t.CheckoutRequestID, t.ExternalReference, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateTopUp
		}
		return fmt.Errorf("failed to create top-up: %w", err)
	}
	return nil
}

func (s *postgresStore) GetTopUp(ctx context.Context, checkoutRequestID string) (*TopUp, error) {
	var t TopUp
	err := s.db.GetContext(ctx, &t,
		`SELECT `+topUpColumns+` FROM superlike_topups WHERE checkout_request_id = $1`, checkoutRequestID)
	if database.IsNoRows(err) {
		return nil, ErrTopUpNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top-up: %w", err)
	}
	return &t, nil
}

// CompleteTopUp also settles expired jobs: a confirmation that arrives
// after the wait window is still money received.
func (s *postgresStore) CompleteTopUp(ctx context.Context, checkoutRequestID string) (*TopUp, int64, bool, error) {
	var t TopUp
	var balance int64
	settled := false
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &t, `
			UPDATE superlike_topups
			SET status = $2, completed_at = NOW()
			WHERE checkout_request_id = $1 AND status IN ($3, $4)
			RETURNING `+topUpColumns, checkoutRequestID, TopUpCompleted, TopUpPending, TopUpExpired)
		if database.IsNoRows(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to complete top-up: %w", err)
		}

		if balance, err = credit(ctx, tx, t.UserID, t.Amount); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, 0, false, err
	}
	if !settled {
		existing, err := s.GetTopUp(ctx, checkoutRequestID)
		if err != nil {
			return nil, 0, false, err
		}
		return existing, 0, false, nil
	}
	return &t, balance, true, nil
}

func (s *postgresStore) FailTopUp(ctx context.Context, checkoutRequestID string) (*TopUp, bool, error) {
	var t TopUp
	err := s.db.GetContext(ctx, &t, `
		UPDATE superlike_topups
		SET status = $2, completed_at = NOW()
		WHERE checkout_request_id = $1 AND status IN ($3, $4)
		RETURNING `+topUpColumns, checkoutRequestID, TopUpFailed, TopUpPending, TopUpExpired)
	if database.IsNoRows(err) {
		existing, err := s.GetTopUp(ctx, checkoutRequestID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fail top-up: %w", err)
	}
	return &t, true, nil
}

func (s *postgresStore) ListPendingTopUps(ctx context.Context, createdBefore time.Time) ([]*TopUp, error) {
	topUps := []*TopUp{}
	err := s.db.SelectContext(ctx, &topUps, `
		SELECT `+topUpColumns+` FROM superlike_topups
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at`, TopUpPending, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending top-ups: %w", err)
	}
	return topUps, nil
}

func (s *postgresStore) ExpireTopUps(ctx context.Context, createdBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE superlike_topups SET status = $1 WHERE status = $2 AND created_at < $3`,
		TopUpExpired, TopUpPending, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to expire top-ups: %w", err)
	}
	return res.RowsAffected()
}

func (s *postgresStore) ListWithdrawals(ctx context.Context, filter *WithdrawalFilter) ([]*Withdrawal, int, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	clause := "TRUE"
	if len(where) > 0 {
		clause = strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM superlike_withdrawals WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM superlike_withdrawals WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		withdrawalColumns, clause, len(args)-1, len(args))

	rows := []*Withdrawal{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return rows, total, nil
}

func (s *postgresStore) CompleteWithdrawals(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE superlike_withdrawals
		SET status = $2, completed_at = NOW()
		WHERE user_id = $1 AND status = $3`, userID, WithdrawalCompleted, WithdrawalPending)
	if err != nil {
		return 0, fmt.Errorf("failed to complete withdrawals: %w", err)
	}
	return res.RowsAffected()
}
