// internal/messages/repository.go

package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository defines message persistence
type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	List(ctx context.Context, filter *ListFilter) ([]*Message, int, error)
	Update(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL message repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const messageColumns = `id, sender_id, receiver_id, message, is_read, timestamp`

func (r *postgresRepository) Create(ctx context.Context, m *Message) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO messages (sender_id, receiver_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, timestamp`,
		m.SenderID, m.ReceiverID, m.Message,
	).Scan(&m.ID, &m.IsRead, &m.Timestamp)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrReceiverNotFound
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Message, int, error) {
	args := []interface{}{filter.UserID}
	where := []string{"(sender_id = $1 OR receiver_id = $1)"}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.WithUser != nil {
		add("(sender_id = $%[1]d OR receiver_id = $%[1]d)", *filter.WithUser)
	}
	if filter.IsRead != nil {
		add("is_read = $%d", *filter.IsRead)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE %s ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d`,
		messageColumns, clause, len(args)-1, len(args))

	msgs := []*Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, m *Message) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET message = $2, is_read = $3 WHERE id = $1`, m.ID, m.Message, m.IsRead)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}
