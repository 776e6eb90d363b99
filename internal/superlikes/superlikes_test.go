package superlikes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
	"github.com/imadgeboyega/matchup-backend/internal/mpesa"
	"github.com/imadgeboyega/matchup-backend/internal/notification"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
)

type memStore struct {
	mu          sync.Mutex
	users       map[int64]bool
	balances    map[int64]int64
	withdrawals []*Withdrawal
	topups      map[string]*TopUp
	nextID      int64
}

func newMemStore(users ...int64) *memStore {
	s := &memStore{users: map[int64]bool{}, balances: map[int64]int64{}, topups: map[string]*TopUp{}}
	for _, id := range users {
		s.users[id] = true
	}
	return s
}

func (s *memStore) Balance(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *memStore) Transfer(_ context.Context, senderID, receiverID, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users[receiverID] {
		return 0, ErrReceiverNotFound
	}
	if s.balances[senderID] < amount {
		return 0, ErrInsufficientBalance
	}
	s.balances[senderID] -= amount
	s.balances[receiverID] += amount
	return s.balances[senderID], nil
}

func (s *memStore) Withdraw(_ context.Context, userID, amount int64) (*Withdrawal, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[userID] < amount {
		return nil, 0, ErrInsufficientBalance
	}
	s.balances[userID] -= amount
	s.nextID++
	w := &Withdrawal{ID: s.nextID, UserID: userID, Amount: amount, Status: WithdrawalPending}
	s.withdrawals = append(s.withdrawals, w)
	return w, s.balances[userID], nil
}

func (s *memStore) Credit(_ context.Context, userID, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users[userID] {
		return 0, ErrUserNotFound
	}
	s.balances[userID] += amount
	return s.balances[userID], nil
}

func (s *memStore) CreateTopUp(_ context.Context, t *TopUp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topups[t.CheckoutRequestID]; ok {
		return ErrDuplicateTopUp
	}
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now()
	cp := *t
	s.topups[t.CheckoutRequestID] = &cp
	return nil
}

func (s *memStore) GetTopUp(_ context.Context, id string) (*TopUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topups[id]
	if !ok {
		return nil, ErrTopUpNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) settle(id, status string) (*TopUp, bool, error) {
	t, ok := s.topups[id]
	if !ok {
		return nil, false, ErrTopUpNotFound
	}
	if t.Status != TopUpPending && t.Status != TopUpExpired {
		cp := *t
		return &cp, false, nil
	}
	now := time.Now()
	t.Status = status
	t.CompletedAt = &now
	cp := *t
	return &cp, true, nil
}

func (s *memStore) CompleteTopUp(_ context.Context, id string) (*TopUp, int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok, err := s.settle(id, TopUpCompleted)
	if err != nil || !ok {
		return t, 0, ok, err
	}
	s.balances[t.UserID] += t.Amount
	return t, s.balances[t.UserID], true, nil
}

func (s *memStore) FailTopUp(_ context.Context, id string) (*TopUp, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settle(id, TopUpFailed)
}

func (s *memStore) ListPendingTopUps(_ context.Context, before time.Time) ([]*TopUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*TopUp{}
	for _, t := range s.topups {
		if t.Status == TopUpPending && t.CreatedAt.Before(before) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ExpireTopUps(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.topups {
		if t.Status == TopUpPending && t.CreatedAt.Before(before) {
			t.Status = TopUpExpired
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListWithdrawals(_ context.Context, f *WithdrawalFilter) ([]*Withdrawal, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*Withdrawal{}
	for _, w := range s.withdrawals {
		if f.UserID != nil && *f.UserID != w.UserID {
			continue
		}
		if f.Status != nil && *f.Status != w.Status {
			continue
		}
		out = append(out, w)
	}
	return out, len(out), nil
}

func (s *memStore) CompleteWithdrawals(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, w := range s.withdrawals {
		if w.UserID == userID && w.Status == WithdrawalPending {
			w.Status = WithdrawalCompleted
			n++
		}
	}
	return n, nil
}

type fakeCharger struct {
	mu       sync.Mutex
	seq      int
	last     *mpesa.ChargeRequest
	err      error
	payments map[string]*mpesa.Payment
}

func (c *fakeCharger) PaymentByCheckoutID(_ context.Context, id string) (*mpesa.Payment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.payments[id]
	if !ok {
		return nil, mpesa.ErrPaymentNotFound
	}
	return p, nil
}

func (c *fakeCharger) store(p *mpesa.Payment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payments == nil {
		c.payments = map[string]*mpesa.Payment{}
	}
	c.payments[p.CheckoutRequestID] = p
}

func (c *fakeCharger) Charge(_ context.Context, req *mpesa.ChargeRequest) (*mpesa.Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.seq++
	c.last = req
	return &mpesa.Request{
		UserID:            req.UserID,
		Purpose:           req.Purpose,
		Amount:            req.Amount,
		Phone:             "254712345678",
		ExternalReference: "INV-TEST",
		CheckoutRequestID: "ws_" + string(rune('a'+c.seq)),
		Success:           true,
	}, nil
}

type stubLookup map[int64]*profile.Info

func (s stubLookup) Lookup(_ context.Context, userID int64) (*profile.Info, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return nil, profile.ErrProfileNotFound
}

type published struct {
	userID    int64
	eventType string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(userID int64, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID, eventType})
}

type testEnv struct {
	svc     *service
	store   *memStore
	charger *fakeCharger
	pub     *recordingPublisher
	sms     *notification.MockSMSService
}

func newTestEnv() *testEnv {
	store := newMemStore(1, 2, 3)
	charger := &fakeCharger{}
	pub := &recordingPublisher{}
	sms := notification.NewMockSMSService()
	lookup := stubLookup{
		1: {UserID: 1, Active: true},
		2: {UserID: 2, Active: true},
		3: {UserID: 3, Active: false},
	}
	svc := NewService(store, charger, lookup, pub, NewLocalNotifier(), sms, Config{
		UnitPrice:      decimal.RequireFromString("2.50"),
		PaymentTimeout: time.Minute,
		PollInterval:   time.Hour,
		WaitMax:        2 * time.Second,
	}).(*service)
	return &testEnv{svc: svc, store: store, charger: charger, pub: pub, sms: sms}
}

func TestSend(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.store.balances[1] = 10

	cases := []struct {
		name string
		req  SendRequest
		want error
	}{
		{"zero amount", SendRequest{ReceiverID: 2, Amount: 0}, ErrInvalidAmount},
		{"negative amount", SendRequest{ReceiverID: 2, Amount: -3}, ErrInvalidAmount},
		{"self", SendRequest{ReceiverID: 1, Amount: 1}, ErrSelfTransfer},
		{"too much", SendRequest{ReceiverID: 2, Amount: 11}, ErrInsufficientBalance},
		{"unknown receiver", SendRequest{ReceiverID: 99, Amount: 1}, ErrReceiverNotFound},
	}
	for _, tc := range cases {
		if _, err := env.svc.Send(ctx, 1, &tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if env.store.balances[1] != 10 {
		t.Fatalf("rejected sends must not move balance, got %d", env.store.balances[1])
	}

	res, err := env.svc.Send(ctx, 1, &SendRequest{ReceiverID: 2, Amount: 4})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.SenderBalance != 6 || env.store.balances[2] != 4 {
		t.Fatalf("unexpected balances sender=%d receiver=%d", res.SenderBalance, env.store.balances[2])
	}
	if len(env.pub.events) != 1 || env.pub.events[0].userID != 2 {
		t.Fatalf("expected receiver notification, got %+v", env.pub.events)
	}
}

func TestConcurrentFullBalanceWithdrawals(t *testing.T) {
	env := newTestEnv()
	env.store.balances[1] = 50

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Withdraw(context.Background(), 1, &WithdrawRequest{Amount: 50})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case !errors.Is(err, ErrInsufficientBalance):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one successful withdrawal, got %d", success)
	}
	if env.store.balances[1] != 0 {
		t.Fatalf("expected zero balance, got %d", env.store.balances[1])
	}
}

func TestBuyCreatesPendingTopUp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	topUp, err := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 3, Phone: "0712345678"})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if topUp.Status != TopUpPending || !topUp.Price.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unexpected top-up %+v", topUp)
	}
	if env.charger.last.Purpose != mpesa.PurposeSuperlikes {
		t.Fatalf("expected superlikes purpose, got %s", env.charger.last.Purpose)
	}
	if env.store.balances[1] != 0 {
		t.Fatal("balance must not change before the payment is confirmed")
	}

	if _, err := env.svc.Buy(ctx, 3, &BuyRequest{Amount: 1, Phone: "0712345678"}); !errors.Is(err, ErrProfileInactive) {
		t.Fatalf("expected ErrProfileInactive, got %v", err)
	}
	if _, err := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 0, Phone: "0712345678"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPaymentCompletionIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	topUp, _ := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 5, Phone: "0712345678"})
	req := &mpesa.Request{CheckoutRequestID: topUp.CheckoutRequestID}
	payment := &mpesa.Payment{CheckoutRequestID: topUp.CheckoutRequestID, MpesaReceiptNumber: "SGL1"}

	for i := 0; i < 3; i++ {
		if err := env.svc.PaymentSucceeded(ctx, req, payment); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if env.store.balances[1] != 5 {
		t.Fatalf("expected a single credit of 5, got %d", env.store.balances[1])
	}
	if n := len(env.sms.Messages()); n != 1 {
		t.Fatalf("expected one receipt SMS, got %d", n)
	}

	if err := env.svc.PaymentFailed(ctx, req, payment); err != nil {
		t.Fatalf("late failure: %v", err)
	}
	got, _ := env.store.GetTopUp(ctx, topUp.CheckoutRequestID)
	if got.Status != TopUpCompleted {
		t.Fatalf("completed top-up must stay completed, got %s", got.Status)
	}
}

func TestTopUpStatusWaitsForWebhook(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	topUp, _ := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 2, Phone: "0712345678"})

	go func() {
		time.Sleep(30 * time.Millisecond)
		env.svc.PaymentSucceeded(context.Background(),
			&mpesa.Request{CheckoutRequestID: topUp.CheckoutRequestID},
			&mpesa.Payment{MpesaReceiptNumber: "SGL2"})
	}()

	start := time.Now()
	got, err := env.svc.TopUpStatus(ctx, 1, topUp.CheckoutRequestID, time.Minute)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != TopUpCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if time.Since(start) > time.Second {
		t.Fatal("waiter should wake on notification, not poll")
	}
}

func TestTopUpStatusWaitEndsPending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	topUp, _ := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 2, Phone: "0712345678"})

	got, err := env.svc.TopUpStatus(ctx, 1, topUp.CheckoutRequestID, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.Status != TopUpPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	if _, err := env.svc.TopUpStatus(ctx, 2, topUp.CheckoutRequestID, 0); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := env.svc.TopUpStatus(cancelled, 1, topUp.CheckoutRequestID, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExpiredTopUpReportsMissingPayment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	topUp, _ := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 2, Phone: "0712345678"})

	env.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := env.svc.ExpireTopUps(ctx); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if _, err := env.svc.TopUpStatus(ctx, 1, topUp.CheckoutRequestID, 0); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}

	// money that arrives late is still credited
	if err := env.svc.PaymentSucceeded(ctx, &mpesa.Request{CheckoutRequestID: topUp.CheckoutRequestID}, &mpesa.Payment{}); err != nil {
		t.Fatalf("late success: %v", err)
	}
	if env.store.balances[1] != 2 {
		t.Fatalf("expected late credit, got %d", env.store.balances[1])
	}
}

func TestConfirmationBeforeBuyRecordsTopUp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// the first charge gets checkout ws_b
	req := &mpesa.Request{
		UserID:            1,
		Purpose:           mpesa.PurposeSuperlikes,
		Amount:            decimal.RequireFromString("10"),
		Phone:             "254712345678",
		CheckoutRequestID: "ws_b",
	}
	if err := env.svc.PaymentSucceeded(ctx, req, &mpesa.Payment{CheckoutRequestID: "ws_b", MpesaReceiptNumber: "SGL3"}); err != nil {
		t.Fatalf("early confirmation: %v", err)
	}
	if env.store.balances[1] != 4 {
		t.Fatalf("expected 4 superlikes credited, got %d", env.store.balances[1])
	}

	topUp, err := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 4, Phone: "0712345678"})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if topUp.CheckoutRequestID != "ws_b" || topUp.Status != TopUpCompleted {
		t.Fatalf("expected the completed job, got %+v", topUp)
	}

	env.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := env.svc.ExpireTopUps(ctx); err != nil {
		t.Fatalf("expire: %v", err)
	}
	got, err := env.svc.TopUpStatus(ctx, 1, "ws_b", 0)
	if err != nil || got.Status != TopUpCompleted {
		t.Fatalf("expected completed top-up, got %+v, %v", got, err)
	}
	if env.store.balances[1] != 4 {
		t.Fatalf("expected a single credit, got %d", env.store.balances[1])
	}
}

func TestExpireSettlesStoredConfirmations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	paid, _ := env.svc.Buy(ctx, 1, &BuyRequest{Amount: 3, Phone: "0712345678"})
	declined, _ := env.svc.Buy(ctx, 2, &BuyRequest{Amount: 1, Phone: "0712345678"})
	unpaid, _ := env.svc.Buy(ctx, 2, &BuyRequest{Amount: 1, Phone: "0712345678"})

	// stored by the webhook, never applied
	env.charger.store(&mpesa.Payment{CheckoutRequestID: paid.CheckoutRequestID, MpesaReceiptNumber: "SGL4"})
	env.charger.store(&mpesa.Payment{CheckoutRequestID: declined.CheckoutRequestID, ResultCode: 1032})

	env.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := env.svc.ExpireTopUps(ctx); err != nil {
		t.Fatalf("expire: %v", err)
	}

	want := map[string]string{
		paid.CheckoutRequestID:     TopUpCompleted,
		declined.CheckoutRequestID: TopUpFailed,
		unpaid.CheckoutRequestID:   TopUpExpired,
	}
	for id, status := range want {
		got, _ := env.store.GetTopUp(ctx, id)
		if got.Status != status {
			t.Errorf("%s: expected %s, got %s", id, status, got.Status)
		}
	}
	if env.store.balances[1] != 3 || env.store.balances[2] != 0 {
		t.Fatalf("unexpected balances %v", env.store.balances)
	}
}

func TestCompleteWithdrawalsOnlyTouchesOneUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.store.balances[1] = 10
	env.store.balances[2] = 10
	for _, userID := range []int64{1, 2, 1, 2} {
		if _, err := env.svc.Withdraw(ctx, userID, &WithdrawRequest{Amount: 2}); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
	}

	n, err := env.svc.CompleteWithdrawals(ctx, 1)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 completed, got %d", n)
	}
	for _, w := range env.store.withdrawals {
		want := WithdrawalPending
		if w.UserID == 1 {
			want = WithdrawalCompleted
		}
		if w.Status != want {
			t.Errorf("withdrawal %d of user %d: expected %s, got %s", w.ID, w.UserID, want, w.Status)
		}
	}

	if n, _ := env.svc.CompleteWithdrawals(ctx, 1); n != 0 {
		t.Fatalf("expected nothing left for user 1, got %d", n)
	}
}

type stubValidator map[string]*utils.JWTClaims

func (s stubValidator) ValidateToken(_ context.Context, token string) (*utils.JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestRoutes(t *testing.T) {
	env := newTestEnv()
	env.store.balances[1] = 3

	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(env.svc), auth.NewMiddleware(stubValidator{
		"u1":    {UserID: 1, UserType: auth.UserTypeCustomer, Type: utils.TokenTypeAccess},
		"admin": {UserID: 9, UserType: auth.UserTypeAdmin, Type: utils.TokenTypeAccess},
	}))

	do := func(token, method, path string, payload interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if payload != nil {
			json.NewEncoder(&buf).Encode(payload)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do("u1", "GET", "/api/v1/superlikes/count", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("count: expected 200, got %d", rec.Code)
	}
	var count struct {
		Data struct {
			Amount int64 `json:"amount"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&count)
	if count.Data.Amount != 3 {
		t.Fatalf("expected amount 3, got %d", count.Data.Amount)
	}

	if rec := do("u1", "POST", "/api/v1/superlikes/send", map[string]int64{"receiver_id": 2, "amount": 5}); rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraw: expected 400, got %d", rec.Code)
	}
	if rec := do("u1", "POST", "/api/v1/superlikes/send", map[string]int64{"receiver_id": 1, "amount": 1}); rec.Code != http.StatusBadRequest {
		t.Fatalf("self send: expected 400, got %d", rec.Code)
	}
	if rec := do("u1", "POST", "/api/v1/superlikes/withdraw", map[string]int64{"amount": 4}); rec.Code != http.StatusBadRequest {
		t.Fatalf("withdraw overdraw: expected 400, got %d", rec.Code)
	}
	if rec := do("u1", "POST", "/api/v1/superlikes/withdraw", map[string]int64{"amount": 3}); rec.Code != http.StatusOK {
		t.Fatalf("withdraw: expected 200, got %d", rec.Code)
	}

	rec = do("u1", "POST", "/api/v1/superlikes/buy", map[string]interface{}{"amount": 2, "phone": "0712345678"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("buy: expected 202, got %d", rec.Code)
	}
	var bought struct {
		Data struct {
			CheckoutRequestID string `json:"checkout_request_id"`
			StatusURL         string `json:"status_url"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&bought)
	if rec := do("u1", "GET", bought.Data.StatusURL, nil); rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
	if rec := do("u1", "GET", bought.Data.StatusURL+"?wait=soon", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad wait: expected 400, got %d", rec.Code)
	}

	env.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	env.svc.ExpireTopUps(context.Background())
	rec = do("u1", "GET", bought.Data.StatusURL, nil)
	if rec.Code != http.StatusNotFound || !bytes.Contains(rec.Body.Bytes(), []byte("We could not find your payment, contact support")) {
		t.Fatalf("expired: expected 404 with support message, got %d: %s", rec.Code, rec.Body.String())
	}

	env.charger.err = mpesa.ErrGatewayFailure
	if rec := do("u1", "POST", "/api/v1/superlikes/buy", map[string]interface{}{"amount": 2, "phone": "0712345678"}); rec.Code != http.StatusBadGateway {
		t.Fatalf("gateway down: expected 502, got %d", rec.Code)
	}

	if rec := do("u1", "GET", "/api/v1/superlikes/withdrawals", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("customer admin list: expected 403, got %d", rec.Code)
	}
	if rec := do("admin", "GET", "/api/v1/superlikes/withdrawals?user_id=1&status=pending", nil); rec.Code != http.StatusOK {
		t.Fatalf("admin list: expected 200, got %d", rec.Code)
	}
	rec = do("admin", "POST", "/api/v1/superlikes/withdrawals/complete", map[string]int64{"user_id": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", rec.Code)
	}
	var completed struct {
		Data struct {
			UserID    int64 `json:"user_id"`
			Completed int64 `json:"completed"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&completed)
	if completed.Data.UserID != 1 || completed.Data.Completed != 1 {
		t.Fatalf("unexpected completion result %+v", completed.Data)
	}
	if env.store.withdrawals[0].Status != WithdrawalCompleted {
		t.Fatal("expected withdrawal to be completed")
	}
}
