// internal/subscriptions/service.go

package subscriptions

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrDuplicateTransaction = errors.New("transaction ID already exists")
	ErrInvalidReference     = errors.New("user or plan does not exist")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrInvalidDates         = errors.New("end_date must be after start_date")
	ErrInvalidDays          = errors.New("days must be greater than zero")
)

// Extender is what payment completion needs from subscriptions
type Extender interface {
	ExtendIfExpired(ctx context.Context, userID int64, planID *int64, days int) (*ExtendResult, error)
}

// Service defines subscription operations
type Service interface {
	Extender

	Create(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error)
	Get(ctx context.Context, callerID int64, isAdmin bool, id int64) (*Subscription, error)
	GetMine(ctx context.Context, userID int64) (*Subscription, error)
	List(ctx context.Context, filter *ListFilter) ([]*Subscription, int, error)
	Update(ctx context.Context, id int64, req *UpdateSubscriptionRequest) (*Subscription, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new subscription service
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Create(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return nil, ErrInvalidDates
	}

	sub := &Subscription{
		UserID:           req.UserID,
		PlanID:           req.PlanID,
		SubscriptionType: req.SubscriptionType,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		TransactionID:    req.TransactionID,
	}
	if req.Price != nil {
		sub.Price = decimal.NewNullDecimal(*req.Price)
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) Get(ctx context.Context, callerID int64, isAdmin bool, id int64) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != callerID && !isAdmin {
		return nil, ErrUnauthorized
	}
	return sub, nil
}

func (s *service) GetMine(ctx context.Context, userID int64) (*Subscription, error) {
	return s.repo.GetLatestForUser(ctx, userID)
}

func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Subscription, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id int64, req *UpdateSubscriptionRequest) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PlanID != nil {
		sub.PlanID = req.PlanID
	}
	if req.SubscriptionType != nil {
		sub.SubscriptionType = *req.SubscriptionType
	}
	if req.StartDate != nil {
		sub.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		sub.EndDate = req.EndDate
	}
	if req.Price != nil {
		sub.Price = decimal.NewNullDecimal(*req.Price)
	}
	if req.PaymentMethod != nil {
		sub.PaymentMethod = req.PaymentMethod
	}
	if req.PaymentStatus != nil {
		sub.PaymentStatus = *req.PaymentStatus
	}
	if req.TransactionID != nil {
		sub.TransactionID = req.TransactionID
	}
	if sub.EndDate != nil && !sub.EndDate.After(sub.StartDate) {
		return nil, ErrInvalidDates
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ExtendIfExpired grants days of access after a payment. A subscription
// that has not yet ended is left untouched.
func (s *service) ExtendIfExpired(ctx context.Context, userID int64, planID *int64, days int) (*ExtendResult, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}

	result, err := s.repo.ExtendIfExpired(ctx, userID, planID, days, s.now().UTC())
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case ExtensionStillActive:
		log.Printf("Subscription for user %d is still active, not extended", userID)
	default:
		log.Printf("Subscription for user %d %s, ends %s", userID, result.Status, result.Subscription.EndDate.Format(time.RFC3339))
	}
	return result, nil
}
