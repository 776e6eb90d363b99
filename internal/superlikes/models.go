// internal/superlikes/models.go

package superlikes

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalPending   = "pending"
	WithdrawalCompleted = "completed"
)

const (
	TopUpPending   = "pending"
	TopUpCompleted = "completed"
	TopUpFailed    = "failed"
	TopUpExpired   = "expired"
)

// Balance is a user's superlike balance. A missing row means zero.
type Balance struct {
	UserID      int64     `json:"user_id" db:"user_id"`
	Amount      int64     `json:"amount" db:"amount"`
	DateUpdated time.Time `json:"date_updated" db:"date_updated"`
}

// Withdrawal is a request to cash out superlikes, settled in batches by
// an admin
type Withdrawal struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Amount      int64      `json:"amount" db:"amount"`
	Status      string     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

// TopUp is a superlikes purchase waiting on its M-Pesa confirmation
type TopUp struct {
	ID                int64           `json:"id" db:"id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Amount            int64           `json:"amount" db:"amount"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Phone             string          `json:"phone" db:"phone"`
	CheckoutRequestID string          `json:"checkout_request_id" db:"checkout_request_id"`
	ExternalReference string          `json:"external_reference" db:"external_reference"`
	Status            string          `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	CompletedAt       *time.Time      `json:"completed_at" db:"completed_at"`
}

type SendRequest struct {
	ReceiverID int64 `json:"receiver_id" validate:"required,gt=0"`
	Amount     int64 `json:"amount"`
}

type BuyRequest struct {
	Amount int64  `json:"amount"`
	Phone  string `json:"phone" validate:"required,ke_phone"`
}

type WithdrawRequest struct {
	Amount int64 `json:"amount"`
}

type CompleteWithdrawalsRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// TransferResult is returned by a successful send
type TransferResult struct {
	SenderID      int64 `json:"sender_id"`
	ReceiverID    int64 `json:"receiver_id"`
	Amount        int64 `json:"amount"`
	SenderBalance int64 `json:"sender_balance"`
}

type WithdrawResult struct {
	Withdrawal *Withdrawal `json:"withdrawal"`
	Balance    int64       `json:"balance"`
}

type WithdrawalFilter struct {
	UserID *int64
	Status *string
	Limit  int
	Offset int
}
