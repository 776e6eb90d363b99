// internal/subscriptions/models.go

package subscriptions

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// Subscription grants premium access until EndDate
type Subscription struct {
	ID               int64               `json:"id" db:"id"`
	UserID           int64               `json:"user_id" db:"user_id"`
	PlanID           *int64              `json:"plan_id" db:"plan_id"`
	SubscriptionType string              `json:"subscription_type" db:"subscription_type"`
	StartDate        time.Time           `json:"start_date" db:"start_date"`
	EndDate          *time.Time          `json:"end_date" db:"end_date"`
	Price            decimal.NullDecimal `json:"price" db:"price"`
	PaymentMethod    *string             `json:"payment_method" db:"payment_method"`
	PaymentStatus    string              `json:"payment_status" db:"payment_status"`
	TransactionID    *string             `json:"transaction_id" db:"transaction_id"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the subscription covers t
func (s *Subscription) IsActive(t time.Time) bool {
	return s.PaymentStatus == PaymentStatusPaid && s.EndDate != nil && !s.EndDate.Before(t)
}

// CreateSubscriptionRequest is an admin-created subscription
type CreateSubscriptionRequest struct {
	UserID           int64            `json:"user_id" validate:"required,gt=0"`
	PlanID           *int64           `json:"plan_id" validate:"omitempty,gt=0"`
	SubscriptionType string           `json:"subscription_type" validate:"required,max=50"`
	StartDate        time.Time        `json:"start_date" validate:"required"`
	EndDate          *time.Time       `json:"end_date"`
	Price            *decimal.Decimal `json:"price"`
	PaymentMethod    *string          `json:"payment_method" validate:"omitempty,max=50"`
	PaymentStatus    string           `json:"payment_status" validate:"required,oneof=paid unpaid"`
	TransactionID    *string          `json:"transaction_id" validate:"omitempty,max=100"`
}

// UpdateSubscriptionRequest edits a subscription
type UpdateSubscriptionRequest struct {
	PlanID           *int64           `json:"plan_id" validate:"omitempty,gt=0"`
	SubscriptionType *string          `json:"subscription_type" validate:"omitempty,max=50"`
	StartDate        *time.Time       `json:"start_date"`
	EndDate          *time.Time       `json:"end_date"`
	Price            *decimal.Decimal `json:"price"`
	PaymentMethod    *string          `json:"payment_method" validate:"omitempty,max=50"`
	PaymentStatus    *string          `json:"payment_status" validate:"omitempty,oneof=paid unpaid"`
	TransactionID    *string          `json:"transaction_id" validate:"omitempty,max=100"`
}

// ListFilter narrows subscription listings
type ListFilter struct {
	UserID           *int64
	PlanID           *int64
	SubscriptionType *string
	PaymentStatus    *string
	Limit            int
	Offset           int
}

// Extension outcomes
const (
	ExtensionCreated     = "created"
	ExtensionExtended    = "extended"
	ExtensionStillActive = "still_active"
)

// ExtendResult describes what ExtendIfExpired did
type ExtendResult struct {
	Status       string        `json:"status"`
	Subscription *Subscription `json:"subscription"`
}

// planExtension decides how a payment for days of access applies to the
// user's current subscription (nil when there is none). It returns the row
// to write, or nil when the subscription is still running.
func planExtension(current *Subscription, userID int64, planID *int64, days int, now time.Time) (string, *Subscription) {
	end := now.AddDate(0, 0, days)

	if current == nil {
		return ExtensionCreated, &Subscription{
			UserID:           userID,
			PlanID:           planID,
			SubscriptionType: PaymentStatusPaid,
			StartDate:        now,
			EndDate:          &end,
			PaymentStatus:    PaymentStatusPaid,
		}
	}

	if current.EndDate != nil && !current.EndDate.Before(now) {
		return ExtensionStillActive, nil
	}

	next := *current
	next.EndDate = &end
	if next.PaymentStatus == PaymentStatusUnpaid {
		next.PaymentStatus = PaymentStatusPaid
	}
	if planID != nil {
		next.PlanID = planID
	}
	return ExtensionExtended, &next
}
