// internal/mpesa/service.go

package mpesa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
	"github.com/imadgeboyega/matchup-backend/internal/metrics"
	"github.com/imadgeboyega/matchup-backend/internal/plans"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
)

var (
	ErrGatewayFailure   = errors.New("payment gateway request failed")
	ErrRequestNotFound  = errors.New("payment request not found")
	ErrDuplicateRequest = errors.New("payment request already recorded")
	ErrPaymentNotFound  = errors.New("mpesa payment not found")
	ErrDuplicatePayment = errors.New("a payment with this checkout_request_id already exists")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidPhone     = errors.New("phone must be a valid Kenyan mobile number")
	ErrInvalidCallback  = errors.New("callback is missing CheckoutRequestID")
	ErrAccountInactive  = errors.New("account is inactive")
	ErrNothingToUpdate  = errors.New("no fields to update")
)

// Completer finishes whatever a payment was for. Both methods must be safe
// to call again for the same payment.
type Completer interface {
	PaymentSucceeded(ctx context.Context, req *Request, p *Payment) error
	PaymentFailed(ctx context.Context, req *Request, p *Payment) error
}

// Charger starts an STK push for another package and finds the
// confirmation stored for it
type Charger interface {
	Charge(ctx context.Context, req *ChargeRequest) (*Request, error)
	PaymentByCheckoutID(ctx context.Context, checkoutRequestID string) (*Payment, error)
}

// PlanGetter is the part of plans.Service payments need
type PlanGetter interface {
	Get(ctx context.Context, id int64) (*plans.Plan, error)
}

// Service defines M-Pesa operations
type Service interface {
	Charger

	PayForPlan(ctx context.Context, userID int64, req *PlanPaymentRequest) (*Request, error)
	ListRequests(ctx context.Context, filter *RequestFilter) ([]*Request, int, error)
	HandleCallback(ctx context.Context, cb *Callback) error

	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error)
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	ListPayments(ctx context.Context, filter *PaymentFilter) ([]*Payment, int, error)
	UpdatePayment(ctx context.Context, id int64, req *UpdatePaymentRequest) (*Payment, error)
	DeletePayment(ctx context.Context, id int64) error

	// RegisterCompleter routes confirmed payments of purpose to c
	RegisterCompleter(purpose string, c Completer)
}

type service struct {
	repo       Repository
	gateway    Gateway
	plans      PlanGetter
	profiles   profile.Lookup
	completers map[string]Completer
}

// NewService creates a new mpesa service
func NewService(repo Repository, gateway Gateway, plans PlanGetter, profiles profile.Lookup) Service {
	return &service{
		repo:       repo,
		gateway:    gateway,
		plans:      plans,
		profiles:   profiles,
		completers: make(map[string]Completer),
	}
}

func (s *service) RegisterCompleter(purpose string, c Completer) {
	s.completers[purpose] = c
}

// PayForPlan prices the plan for the caller's gender and pushes the charge
func (s *service) PayForPlan(ctx context.Context, userID int64, req *PlanPaymentRequest) (*Request, error) {
	plan, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	info, err := s.profiles.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !info.Active {
		return nil, ErrAccountInactive
	}

	price, err := plans.PriceFor(plan, info.Gender)
	if err != nil {
		return nil, err
	}

	planID := plan.ID
	return s.Charge(ctx, &ChargeRequest{
		UserID:  userID,
		Purpose: PurposeSubscription,
		PlanID:  &planID,
		Amount:  price,
		Phone:   req.Phone,
	})
}

// Charge pushes the STK prompt and records the request. M-Pesa only takes
// whole shillings so the amount is rounded up.
func (s *service) Charge(ctx context.Context, req *ChargeRequest) (*Request, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	phone, err := utils.NormalizeKenyanPhone(req.Phone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	ref := "INV-" + strings.ToUpper(uuid.New().String()[:12])
	resp, err := s.gateway.Push(ctx, req.Amount.Ceil().IntPart(), phone, ref)
	if err != nil {
		return nil, err
	}

	record := &Request{
		UserID:            req.UserID,
		Purpose:           req.Purpose,
		PlanID:            req.PlanID,
		Amount:            req.Amount,
		Phone:             phone,
		ExternalReference: ref,
		CheckoutRequestID: resp.CheckoutRequestID,
		Success:           resp.Success,
		Status:            resp.Status,
		Reference:         resp.Reference,
	}
	if err := s.repo.CreateRequest(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("STK push %s sent for user %d (%s, KES %s)", record.CheckoutRequestID, record.UserID, record.Purpose, record.Amount)
	return record, nil
}

func (s *service) ListRequests(ctx context.Context, filter *RequestFilter) ([]*Request, int, error) {
	return s.repo.ListRequests(ctx, filter)
}

// HandleCallback stores the confirmation and completes the payment's
// purpose. Replays refresh the stored row and re-run idempotent completion.
func (s *service) HandleCallback(ctx context.Context, cb *Callback) error {
	if cb.Response.CheckoutRequestID == "" {
		metrics.Callback(metrics.ResultRejected)
		return ErrInvalidCallback
	}

	p := cb.payment()
	if err := s.repo.SavePayment(ctx, p); err != nil {
		metrics.Callback(metrics.ResultError)
		return err
	}
	return s.dispatch(ctx, p)
}

func (s *service) dispatch(ctx context.Context, p *Payment) error {
	req, err := s.repo.GetRequestByCheckoutID(ctx, p.CheckoutRequestID)
	if errors.Is(err, ErrRequestNotFound) {
		log.Printf("Payment %s has no matching request, stored only", p.CheckoutRequestID)
		metrics.Callback(metrics.ResultIgnored)
		return nil
	}
	if err != nil {
		metrics.Callback(metrics.ResultError)
		return err
	}

	completer, ok := s.completers[req.Purpose]
	if !ok {
		log.Printf("No completer for purpose %q (checkout %s)", req.Purpose, p.CheckoutRequestID)
		metrics.Callback(metrics.ResultIgnored)
		return nil
	}

	if p.Succeeded() {
		err = completer.PaymentSucceeded(ctx, req, p)
	} else {
		err = completer.PaymentFailed(ctx, req, p)
	}
	if err != nil {
		metrics.Callback(metrics.ResultError)
		return fmt.Errorf("failed to complete %s payment %s: %w", req.Purpose, p.CheckoutRequestID, err)
	}

	metrics.Callback(metrics.ResultSuccess)
	return nil
}

// CreatePayment records a confirmation by hand and completes it like the
// webhook would
func (s *service) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error) {
	if req.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	p := &Payment{
		Amount:             req.Amount,
		CheckoutRequestID:  req.CheckoutRequestID,
		ExternalReference:  req.ExternalReference,
		MerchantRequestID:  req.MerchantRequestID,
		MpesaReceiptNumber: req.MpesaReceiptNumber,
		Phone:              req.Phone,
		ResultCode:         *req.ResultCode,
		ResultDesc:         req.ResultDesc,
		Status:             req.Status,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	if err := s.dispatch(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *service) PaymentByCheckoutID(ctx context.Context, checkoutRequestID string) (*Payment, error) {
	return s.repo.GetPaymentByCheckoutID(ctx, checkoutRequestID)
}

func (s *service) ListPayments(ctx context.Context, filter *PaymentFilter) ([]*Payment, int, error) {
	return s.repo.ListPayments(ctx, filter)
}

func (s *service) UpdatePayment(ctx context.Context, id int64, req *UpdatePaymentRequest) (*Payment, error) {
	if req.Amount == nil && req.MpesaReceiptNumber == nil && req.Phone == nil &&
		req.ResultCode == nil && req.ResultDesc == nil && req.Status == nil {
		return nil, ErrNothingToUpdate
	}

	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		if req.Amount.IsNegative() {
			return nil, ErrInvalidAmount
		}
		p.Amount = *req.Amount
	}
	if req.MpesaReceiptNumber != nil {
		p.MpesaReceiptNumber = *req.MpesaReceiptNumber
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.ResultCode != nil {
		p.ResultCode = *req.ResultCode
	}
	if req.ResultDesc != nil {
		p.ResultDesc = *req.ResultDesc
	}
	if req.Status != nil {
		p.Status = *req.Status
	}

	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeletePayment(ctx context.Context, id int64) error {
	return s.repo.DeletePayment(ctx, id)
}
