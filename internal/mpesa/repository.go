// internal/mpesa/repository.go

package mpesa

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/imadgeboyega/matchup-backend/internal/common/database"
)

// Repository persists STK push requests and payment confirmations
type Repository interface {
	CreateRequest(ctx context.Context, req *Request) error
	GetRequestByCheckoutID(ctx context.Context, checkoutRequestID string) (*Request, error)
	ListRequests(ctx context.Context, filter *RequestFilter) ([]*Request, int, error)

	// SavePayment inserts the confirmation or refreshes the row already
	// stored for its checkout id
	SavePayment(ctx context.Context, p *Payment) error
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	GetPaymentByCheckoutID(ctx context.Context, checkoutRequestID string) (*Payment, error)
	ListPayments(ctx context.Context, filter *PaymentFilter) ([]*Payment, int, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL mpesa repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const requestColumns = `id, user_id, purpose, plan_id, amount, phone, external_reference,
	checkout_request_id, success, status, reference, created_at`

const paymentColumns = `id, amount, checkout_request_id, external_reference, merchant_request_id,
	mpesa_receipt_number, phone, result_code, result_desc, status, created_at, updated_at`

func (r *postgresRepository) CreateRequest(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO mpesa_requests (user_id, purpose, plan_id, amount, phone, external_reference,
			checkout_request_id, success, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		req.UserID, req.Purpose, req.PlanID, req.Amount, req.Phone, req.ExternalReference,
		req.CheckoutRequestID, req.Success, req.Status, req.Reference,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create mpesa request: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetRequestByCheckoutID(ctx context.Context, checkoutRequestID string) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req,
		`SELECT `+requestColumns+` FROM mpesa_requests WHERE checkout_request_id = $1`, checkoutRequestID)
	if database.IsNoRows(err) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mpesa request: %w", err)
	}
	return &req, nil
}

func (r *postgresRepository) ListRequests(ctx context.Context, filter *RequestFilter) ([]*Request, int, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Purpose != nil {
		add("purpose = $%d", *filter.Purpose)
	}
	clause := "TRUE"
	if len(where) > 0 {
		clause = strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM mpesa_requests WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count mpesa requests: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM mpesa_requests WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		requestColumns, clause, len(args)-1, len(args))

	reqs := []*Request{}
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list mpesa requests: %w", err)
	}
	return reqs, total, nil
}

func (r *postgresRepository) SavePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO mpesa_payments (amount, checkout_request_id, external_reference, merchant_request_id,
			mpesa_receipt_number, phone, result_code, result_desc, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (checkout_request_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    mpesa_receipt_number = EXCLUDED.mpesa_receipt_number,
		    result_code = EXCLUDED.result_code,
		    result_desc = EXCLUDED.result_desc,
		    status = EXCLUDED.status,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.Amount, p.CheckoutRequestID, p.ExternalReference, p.MerchantRequestID,
		p.MpesaReceiptNumber, p.Phone, p.ResultCode, p.ResultDesc, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save mpesa payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) CreatePayment(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO mpesa_payments (amount, checkout_request_id, external_reference, merchant_request_id,
			mpesa_receipt_number, phone, result_code, result_desc, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.Amount, p.CheckoutRequestID, p.ExternalReference, p.MerchantRequestID,
		p.MpesaReceiptNumber, p.Phone, p.ResultCode, p.ResultDesc, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("failed to create mpesa payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM mpesa_payments WHERE id = $1`, id)
	if database.IsNoRows(err) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mpesa payment: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetPaymentByCheckoutID(ctx context.Context, checkoutRequestID string) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p,
		`SELECT `+paymentColumns+` FROM mpesa_payments WHERE checkout_request_id = $1`, checkoutRequestID)
	if database.IsNoRows(err) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mpesa payment: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) ListPayments(ctx context.Context, filter *PaymentFilter) ([]*Payment, int, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Phone != nil {
		add("phone = $%d", *filter.Phone)
	}
	clause := "TRUE"
	if len(where) > 0 {
		clause = strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM mpesa_payments WHERE `+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count mpesa payments: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM mpesa_payments WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, clause, len(args)-1, len(args))

	payments := []*Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list mpesa payments: %w", err)
	}
	return payments, total, nil
}

func (r *postgresRepository) UpdatePayment(ctx context.Context, p *Payment) error {
	query := `
		UPDATE mpesa_payments
		SET amount = $2, mpesa_receipt_number = $3, phone = $4, result_code = $5, result_desc = $6,
		    status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Amount, p.MpesaReceiptNumber, p.Phone, p.ResultCode, p.ResultDesc, p.Status,
	).Scan(&p.UpdatedAt)
	if database.IsNoRows(err) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update mpesa payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeletePayment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mpesa_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mpesa payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
