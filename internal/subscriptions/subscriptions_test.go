package subscriptions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlanExtension(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	plan := int64(4)

	status, sub := planExtension(nil, 7, &plan, 30, now)
	if status != ExtensionCreated {
		t.Fatalf("expected created, got %s", status)
	}
	if sub.UserID != 7 || *sub.PlanID != 4 || sub.PaymentStatus != PaymentStatusPaid || !sub.EndDate.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("unexpected new subscription %+v", sub)
	}

	status, sub = planExtension(&Subscription{ID: 1, UserID: 7, EndDate: &future, PaymentStatus: PaymentStatusPaid}, 7, nil, 30, now)
	if status != ExtensionStillActive || sub != nil {
		t.Fatalf("expected still_active, got %s %+v", status, sub)
	}

	status, sub = planExtension(&Subscription{ID: 1, UserID: 7, EndDate: &now, PaymentStatus: PaymentStatusPaid}, 7, nil, 30, now)
	if status != ExtensionStillActive {
		t.Fatalf("end_date equal to now counts as active, got %s", status)
	}

	status, sub = planExtension(&Subscription{ID: 1, UserID: 7, EndDate: &past, PaymentStatus: PaymentStatusUnpaid}, 7, nil, 10, now)
	if status != ExtensionExtended {
		t.Fatalf("expected extended, got %s", status)
	}
	if sub.ID != 1 || sub.PaymentStatus != PaymentStatusPaid || !sub.EndDate.Equal(now.AddDate(0, 0, 10)) {
		t.Fatalf("unexpected extension %+v", sub)
	}

	status, sub = planExtension(&Subscription{ID: 2, UserID: 7, PaymentStatus: PaymentStatusUnpaid}, 7, nil, 5, now)
	if status != ExtensionExtended || sub.EndDate == nil {
		t.Fatalf("subscription without end date must be extended, got %s", status)
	}
}

type memRepo struct {
	nextID int64
	subs   map[int64]*Subscription
}

func newMemRepo() *memRepo { return &memRepo{subs: map[int64]*Subscription{}} }

func (m *memRepo) Create(_ context.Context, sub *Subscription) error {
	if sub.TransactionID != nil {
		for _, s := range m.subs {
			if s.TransactionID != nil && *s.TransactionID == *sub.TransactionID {
				return ErrDuplicateTransaction
			}
		}
	}
	m.nextID++
	sub.ID = m.nextID
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Subscription, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) GetLatestForUser(_ context.Context, userID int64) (*Subscription, error) {
	var latest *Subscription
	for _, s := range m.subs {
		if s.UserID == userID && (latest == nil || s.ID > latest.ID) {
			latest = s
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, filter *ListFilter) ([]*Subscription, int, error) {
	out := []*Subscription{}
	for _, s := range m.subs {
		if filter.UserID == nil || *filter.UserID == s.UserID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, sub *Subscription) error {
	if _, ok := m.subs[sub.ID]; !ok {
		return ErrSubscriptionNotFound
	}
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	delete(m.subs, id)
	return nil
}

func (m *memRepo) ExtendIfExpired(ctx context.Context, userID int64, planID *int64, days int, now time.Time) (*ExtendResult, error) {
	current, err := m.GetLatestForUser(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		current = nil
	}
	status, next := planExtension(current, userID, planID, days, now)
	switch status {
	case ExtensionCreated:
		m.Create(ctx, next)
	case ExtensionExtended:
		m.Update(ctx, next)
	default:
		next = current
	}
	return &ExtendResult{Status: status, Subscription: next}, nil
}

func TestExtendIfExpired(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo).(*service)
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }
	ctx := context.Background()

	if _, err := svc.ExtendIfExpired(ctx, 1, nil, 0); !errors.Is(err, ErrInvalidDays) {
		t.Fatalf("expected ErrInvalidDays, got %v", err)
	}

	res, err := svc.ExtendIfExpired(ctx, 1, nil, 30)
	if err != nil || res.Status != ExtensionCreated {
		t.Fatalf("expected created, got %+v %v", res, err)
	}

	res, _ = svc.ExtendIfExpired(ctx, 1, nil, 30)
	if res.Status != ExtensionStillActive {
		t.Fatalf("expected still_active, got %s", res.Status)
	}

	current = current.AddDate(0, 0, 31)
	res, _ = svc.ExtendIfExpired(ctx, 1, nil, 7)
	if res.Status != ExtensionExtended || !res.Subscription.EndDate.Equal(current.AddDate(0, 0, 7)) {
		t.Fatalf("expected extension to %s, got %+v", current.AddDate(0, 0, 7), res.Subscription)
	}
	if len(repo.subs) != 1 {
		t.Fatalf("expected a single subscription row, got %d", len(repo.subs))
	}
}

func TestGetSubscriptionOwnership(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()
	txn := "QWE123RTY"
	sub, err := svc.Create(ctx, &CreateSubscriptionRequest{
		UserID: 3, SubscriptionType: "monthly", StartDate: time.Now(), PaymentStatus: PaymentStatusPaid, TransactionID: &txn,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Create(ctx, &CreateSubscriptionRequest{
		UserID: 4, SubscriptionType: "monthly", StartDate: time.Now(), PaymentStatus: PaymentStatusPaid, TransactionID: &txn,
	}); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}

	if _, err := svc.Get(ctx, 9, false, sub.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Get(ctx, 3, false, sub.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(ctx, 9, true, sub.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	before := time.Now().Add(-time.Hour)
	if _, err := svc.Update(ctx, sub.ID, &UpdateSubscriptionRequest{EndDate: &before}); !errors.Is(err, ErrInvalidDates) {
		t.Fatalf("expected ErrInvalidDates, got %v", err)
	}
}
