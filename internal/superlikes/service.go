// internal/superlikes/service.go

package superlikes

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imadgeboyega/matchup-backend/internal/metrics"
	"github.com/imadgeboyega/matchup-backend/internal/mpesa"
	"github.com/imadgeboyega/matchup-backend/internal/notification"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
	"github.com/imadgeboyega/matchup-backend/internal/realtime"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrSelfTransfer        = errors.New("cannot send superlikes to yourself")
	ErrInsufficientBalance = errors.New("insufficient superlikes balance")
	ErrReceiverNotFound    = errors.New("receiver not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrProfileInactive     = errors.New("account is inactive")
	ErrTopUpNotFound       = errors.New("top-up not found")
	ErrDuplicateTopUp      = errors.New("top-up already recorded")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrUnauthorized        = errors.New("unauthorized access")
)

// Config holds ledger pricing and payment wait settings
type Config struct {
	UnitPrice      decimal.Decimal
	PaymentTimeout time.Duration
	PollInterval   time.Duration
	WaitMax        time.Duration
}

// Service defines ledger operations. It also completes superlike
// payments for the mpesa package.
type Service interface {
	mpesa.Completer

	Send(ctx context.Context, senderID int64, req *SendRequest) (*TransferResult, error)
	Buy(ctx context.Context, userID int64, req *BuyRequest) (*TopUp, error)
	TopUpStatus(ctx context.Context, userID int64, checkoutRequestID string, wait time.Duration) (*TopUp, error)
	Count(ctx context.Context, userID int64) (int64, error)
	Withdraw(ctx context.Context, userID int64, req *WithdrawRequest) (*WithdrawResult, error)
	ListWithdrawals(ctx context.Context, filter *WithdrawalFilter) ([]*Withdrawal, int, error)
	CompleteWithdrawals(ctx context.Context, userID int64) (int64, error)
	ExpireTopUps(ctx context.Context) error
}

type service struct {
	store     Store
	charger   mpesa.Charger
	profiles  profile.Lookup
	publisher realtime.Publisher
	notifier  Notifier
	sms       notification.SMSService
	cfg       Config
	now       func() time.Time
}

// NewService creates the ledger service. notifier and sms may be nil.
func NewService(store Store, charger mpesa.Charger, profiles profile.Lookup, publisher realtime.Publisher,
	notifier Notifier, sms notification.SMSService, cfg Config) Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.WaitMax <= 0 {
		cfg.WaitMax = time.Minute
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 3 * time.Minute
	}
	return &service{
		store:     store,
		charger:   charger,
		profiles:  profiles,
		publisher: publisher,
		notifier:  notifier,
		sms:       sms,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *service) Send(ctx context.Context, senderID int64, req *SendRequest) (*TransferResult, error) {
	if req.Amount <= 0 {
		metrics.Transfer(metrics.ResultRejected)
		return nil, ErrInvalidAmount
	}
	if req.ReceiverID == senderID {
		metrics.Transfer(metrics.ResultRejected)
		return nil, ErrSelfTransfer
	}

	balance, err := s.store.Transfer(ctx, senderID, req.ReceiverID, req.Amount)
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		metrics.Transfer(metrics.ResultInsufficient)
		return nil, err
	case errors.Is(err, ErrReceiverNotFound):
		metrics.Transfer(metrics.ResultRejected)
		return nil, err
	case err != nil:
		metrics.Transfer(metrics.ResultError)
		return nil, err
	}
	metrics.Transfer(metrics.ResultSuccess)

	s.publisher.Publish(req.ReceiverID, realtime.EventSuperlikeReceived, map[string]int64{
		"sender_id": senderID,
		"amount":    req.Amount,
	})

	return &TransferResult{
		SenderID:      senderID,
		ReceiverID:    req.ReceiverID,
		Amount:        req.Amount,
		SenderBalance: balance,
	}, nil
}

// Buy pushes the M-Pesa prompt and returns the pending job. Superlikes are
// credited when the payment webhook confirms it.
func (s *service) Buy(ctx context.Context, userID int64, req *BuyRequest) (*TopUp, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	info, err := s.profiles.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !info.Active {
		return nil, ErrProfileInactive
	}

	price := s.cfg.UnitPrice.Mul(decimal.NewFromInt(req.Amount))
	charge, err := s.charger.Charge(ctx, &mpesa.ChargeRequest{
		UserID:  userID,
		Purpose: mpesa.PurposeSuperlikes,
		Amount:  price,
		Phone:   req.Phone,
	})
	if err != nil {
		return nil, err
	}

	t := &TopUp{
		UserID:            userID,
		Amount:            req.Amount,
		Price:             price,
		Phone:             charge.Phone,
		CheckoutRequestID: charge.CheckoutRequestID,
		ExternalReference: charge.ExternalReference,
		Status:            TopUpPending,
	}
	err = s.store.CreateTopUp(ctx, t)
	if errors.Is(err, ErrDuplicateTopUp) {
		// the confirmation got here first and already recorded the job
		return s.store.GetTopUp(ctx, t.CheckoutRequestID)
	}
	if err != nil {
		return nil, err
	}
	metrics.TopUp(TopUpPending, 1)
	return t, nil
}

// TopUpStatus returns the job, optionally waiting up to wait for it to
// leave pending. A job still pending when the wait ends is returned as is.
func (s *service) TopUpStatus(ctx context.Context, userID int64, checkoutRequestID string, wait time.Duration) (*TopUp, error) {
	t, err := s.ownTopUp(ctx, userID, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if t.Status != TopUpPending || wait <= 0 {
		return settled(t)
	}
	if wait > s.cfg.WaitMax {
		wait = s.cfg.WaitMax
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var updates <-chan struct{}
	if s.notifier != nil {
		ch, release, err := s.notifier.Subscribe(waitCtx, checkoutRequestID)
		if err != nil {
			log.Printf("Top-up notifications unavailable, polling instead: %v", err)
		} else {
			defer release()
			updates = ch
		}
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Re-read after subscribing so a completion in between is not missed
		if t, err = s.store.GetTopUp(ctx, checkoutRequestID); err != nil {
			return nil, err
		}
		if t.Status != TopUpPending {
			return settled(t)
		}

		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return t, nil
		case <-updates:
		case <-ticker.C:
		}
	}
}

func settled(t *TopUp) (*TopUp, error) {
	if t.Status == TopUpExpired {
		return nil, ErrPaymentNotFound
	}
	return t, nil
}

func (s *service) ownTopUp(ctx context.Context, userID int64, checkoutRequestID string) (*TopUp, error) {
	t, err := s.store.GetTopUp(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrUnauthorized
	}
	return t, nil
}

func (s *service) Count(ctx context.Context, userID int64) (int64, error) {
	return s.store.Balance(ctx, userID)
}

func (s *service) Withdraw(ctx context.Context, userID int64, req *WithdrawRequest) (*WithdrawResult, error) {
	if req.Amount <= 0 {
		metrics.Withdrawal(metrics.ResultRejected)
		return nil, ErrInvalidAmount
	}

	w, balance, err := s.store.Withdraw(ctx, userID, req.Amount)
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		metrics.Withdrawal(metrics.ResultInsufficient)
		return nil, err
	case err != nil:
		metrics.Withdrawal(metrics.ResultError)
		return nil, err
	}
	metrics.Withdrawal(metrics.ResultSuccess)
	return &WithdrawResult{Withdrawal: w, Balance: balance}, nil
}

func (s *service) ListWithdrawals(ctx context.Context, filter *WithdrawalFilter) ([]*Withdrawal, int, error) {
	return s.store.ListWithdrawals(ctx, filter)
}

func (s *service) CompleteWithdrawals(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.CompleteWithdrawals(ctx, userID)
	if err != nil {
		return 0, err
	}
	log.Printf("Completed %d pending withdrawals for user %d", n, userID)
	return n, nil
}

// ExpireTopUps marks jobs pending longer than the payment timeout. Jobs
// with a stored confirmation are settled from it instead.
func (s *service) ExpireTopUps(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.PaymentTimeout)
	pending, err := s.store.ListPendingTopUps(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, t := range pending {
		if err := s.reconcile(ctx, t); err != nil {
			log.Printf("Failed to reconcile top-up %s: %v", t.CheckoutRequestID, err)
		}
	}

	n, err := s.store.ExpireTopUps(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.TopUp(TopUpExpired, int(n))
		log.Printf("Expired %d unconfirmed superlike top-ups", n)
	}
	return nil
}

// reconcile applies a confirmation the webhook stored but never settled
func (s *service) reconcile(ctx context.Context, t *TopUp) error {
	p, err := s.charger.PaymentByCheckoutID(ctx, t.CheckoutRequestID)
	if errors.Is(err, mpesa.ErrPaymentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	req := &mpesa.Request{
		UserID:            t.UserID,
		Purpose:           mpesa.PurposeSuperlikes,
		Amount:            t.Price,
		Phone:             t.Phone,
		ExternalReference: t.ExternalReference,
		CheckoutRequestID: t.CheckoutRequestID,
	}
	if p.Succeeded() {
		return s.PaymentSucceeded(ctx, req, p)
	}
	return s.PaymentFailed(ctx, req, p)
}

// recordTopUp rebuilds the job from its payment request when the
// confirmation arrives before Buy stored it
func (s *service) recordTopUp(ctx context.Context, req *mpesa.Request) error {
	if !s.cfg.UnitPrice.IsPositive() {
		return ErrTopUpNotFound
	}
	amount := req.Amount.Div(s.cfg.UnitPrice).IntPart()
	if amount <= 0 {
		return ErrTopUpNotFound
	}

	err := s.store.CreateTopUp(ctx, &TopUp{
		UserID:            req.UserID,
		Amount:            amount,
		Price:             req.Amount,
		Phone:             req.Phone,
		CheckoutRequestID: req.CheckoutRequestID,
		ExternalReference: req.ExternalReference,
		Status:            TopUpPending,
	})
	if errors.Is(err, ErrDuplicateTopUp) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("Recorded top-up %s from its payment request", req.CheckoutRequestID)
	return nil
}

// PaymentSucceeded credits the top-up. Replays are no-ops.
func (s *service) PaymentSucceeded(ctx context.Context, req *mpesa.Request, p *mpesa.Payment) error {
	t, balance, ok, err := s.store.CompleteTopUp(ctx, req.CheckoutRequestID)
	if errors.Is(err, ErrTopUpNotFound) {
		if err = s.recordTopUp(ctx, req); err != nil {
			return err
		}
		t, balance, ok, err = s.store.CompleteTopUp(ctx, req.CheckoutRequestID)
	}
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("Top-up %s already %s, ignoring confirmation", req.CheckoutRequestID, t.Status)
		return nil
	}

	metrics.TopUp(TopUpCompleted, 1)
	s.publisher.Publish(t.UserID, realtime.EventTopUpCompleted, map[string]interface{}{
		"checkout_request_id": t.CheckoutRequestID,
		"amount":              t.Amount,
		"balance":             balance,
	})
	s.wake(ctx, t.CheckoutRequestID)

	if s.sms != nil {
		if err := s.sms.SendSMS(ctx, notification.TopUpReceiptSMS(t.Phone, t.Amount, p.MpesaReceiptNumber, balance)); err != nil {
			log.Printf("Failed to send top-up receipt to %s: %v", t.Phone, err)
		}
	}
	return nil
}

func (s *service) PaymentFailed(ctx context.Context, req *mpesa.Request, p *mpesa.Payment) error {
	t, ok, err := s.store.FailTopUp(ctx, req.CheckoutRequestID)
	if errors.Is(err, ErrTopUpNotFound) {
		if err = s.recordTopUp(ctx, req); err != nil {
			return err
		}
		t, ok, err = s.store.FailTopUp(ctx, req.CheckoutRequestID)
	}
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	metrics.TopUp(TopUpFailed, 1)
	s.publisher.Publish(t.UserID, realtime.EventTopUpFailed, map[string]interface{}{
		"checkout_request_id": t.CheckoutRequestID,
		"reason":              p.ResultDesc,
	})
	s.wake(ctx, t.CheckoutRequestID)
	return nil
}

func (s *service) wake(ctx context.Context, checkoutRequestID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, checkoutRequestID); err != nil {
		log.Printf("Failed to publish top-up update %s: %v", checkoutRequestID, err)
	}
}
