package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
	"github.com/imadgeboyega/matchup-backend/internal/notification"
	"github.com/imadgeboyega/matchup-backend/internal/plans"
	"github.com/imadgeboyega/matchup-backend/internal/profile"
	"github.com/imadgeboyega/matchup-backend/internal/subscriptions"
)

type memRepo struct {
	requests map[string]*Request
	payments map[string]*Payment
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{requests: map[string]*Request{}, payments: map[string]*Payment{}}
}

func (m *memRepo) CreateRequest(_ context.Context, r *Request) error {
	if _, ok := m.requests[r.CheckoutRequestID]; ok {
		return ErrDuplicateRequest
	}
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.requests[r.CheckoutRequestID] = &cp
	return nil
}

func (m *memRepo) GetRequestByCheckoutID(_ context.Context, id string) (*Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) ListRequests(_ context.Context, f *RequestFilter) ([]*Request, int, error) {
	out := []*Request{}
	for _, r := range m.requests {
		if f.UserID == nil || *f.UserID == r.UserID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) SavePayment(_ context.Context, p *Payment) error {
	if existing, ok := m.payments[p.CheckoutRequestID]; ok {
		p.ID = existing.ID
	} else {
		m.nextID++
		p.ID = m.nextID
	}
	cp := *p
	m.payments[p.CheckoutRequestID] = &cp
	return nil
}

func (m *memRepo) CreatePayment(ctx context.Context, p *Payment) error {
	if _, ok := m.payments[p.CheckoutRequestID]; ok {
		return ErrDuplicatePayment
	}
	return m.SavePayment(ctx, p)
}

func (m *memRepo) GetPayment(_ context.Context, id int64) (*Payment, error) {
	for _, p := range m.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (m *memRepo) GetPaymentByCheckoutID(_ context.Context, id string) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) ListPayments(_ context.Context, _ *PaymentFilter) ([]*Payment, int, error) {
	out := []*Payment{}
	for _, p := range m.payments {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memRepo) UpdatePayment(_ context.Context, p *Payment) error {
	cp := *p
	m.payments[p.CheckoutRequestID] = &cp
	return nil
}

func (m *memRepo) DeletePayment(_ context.Context, id int64) error {
	for k, p := range m.payments {
		if p.ID == id {
			delete(m.payments, k)
			return nil
		}
	}
	return ErrPaymentNotFound
}

type fakeGateway struct {
	amounts []int64
	phones  []string
	err     error
}

func (g *fakeGateway) Push(_ context.Context, amount int64, phone, ref string) (*STKPushResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.amounts = append(g.amounts, amount)
	g.phones = append(g.phones, phone)
	return &STKPushResponse{Success: true, Status: "QUEUED", Reference: "r-" + ref, CheckoutRequestID: "ws_" + ref}, nil
}

type stubPlans map[int64]*plans.Plan

func (s stubPlans) Get(_ context.Context, id int64) (*plans.Plan, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, plans.ErrPlanNotFound
}

type stubLookup map[int64]*profile.Info

func (s stubLookup) Lookup(_ context.Context, userID int64) (*profile.Info, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return nil, profile.ErrProfileNotFound
}

type recordingCompleter struct {
	succeeded []string
	failed    []string
}

func (c *recordingCompleter) PaymentSucceeded(_ context.Context, req *Request, _ *Payment) error {
	c.succeeded = append(c.succeeded, req.CheckoutRequestID)
	return nil
}

func (c *recordingCompleter) PaymentFailed(_ context.Context, req *Request, _ *Payment) error {
	c.failed = append(c.failed, req.CheckoutRequestID)
	return nil
}

func goldPlan() *plans.Plan {
	return &plans.Plan{
		ID:           3,
		Name:         "Gold",
		PriceMale:    decimal.RequireFromString("499.50"),
		PriceFemale:  decimal.RequireFromString("299"),
		DurationDays: 30,
		Features:     types.JSONText(`["boost","rewind"]`),
	}
}

func newTestService() (*service, *memRepo, *fakeGateway) {
	repo := newMemRepo()
	gw := &fakeGateway{}
	lookup := stubLookup{
		1: {UserID: 1, Gender: "male", Active: true},
		2: {UserID: 2, Gender: "female", Active: true},
		3: {UserID: 3, Gender: "other", Active: true},
		4: {UserID: 4, Gender: "male", Active: false},
	}
	svc := NewService(repo, gw, stubPlans{3: goldPlan()}, lookup).(*service)
	return svc, repo, gw
}

func TestPayForPlanPricesByGender(t *testing.T) {
	svc, repo, gw := newTestService()
	ctx := context.Background()

	male, err := svc.PayForPlan(ctx, 1, &PlanPaymentRequest{Phone: "0712345678", PlanID: 3})
	if err != nil {
		t.Fatalf("male: %v", err)
	}
	if _, err := svc.PayForPlan(ctx, 2, &PlanPaymentRequest{Phone: "+254712345679", PlanID: 3}); err != nil {
		t.Fatalf("female: %v", err)
	}

	if gw.amounts[0] != 500 || gw.amounts[1] != 299 {
		t.Fatalf("expected whole-shilling amounts [500 299], got %v", gw.amounts)
	}
	if gw.phones[0] != "254712345678" {
		t.Fatalf("expected normalized phone, got %s", gw.phones[0])
	}
	stored := repo.requests[male.CheckoutRequestID]
	if stored.Purpose != PurposeSubscription || stored.PlanID == nil || *stored.PlanID != 3 || !stored.Success {
		t.Fatalf("unexpected stored request %+v", stored)
	}

	cases := []struct {
		user int64
		plan int64
		want error
	}{
		{3, 3, plans.ErrUnsupportedGender},
		{4, 3, ErrAccountInactive},
		{9, 3, profile.ErrProfileNotFound},
		{1, 8, plans.ErrPlanNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.PayForPlan(ctx, tc.user, &PlanPaymentRequest{Phone: "0712345678", PlanID: tc.plan}); !errors.Is(err, tc.want) {
			t.Errorf("user %d plan %d: expected %v, got %v", tc.user, tc.plan, tc.want, err)
		}
	}
}

func TestChargeGatewayFailureStoresNothing(t *testing.T) {
	svc, repo, gw := newTestService()
	gw.err = ErrGatewayFailure

	_, err := svc.Charge(context.Background(), &ChargeRequest{UserID: 1, Purpose: PurposeSuperlikes, Amount: decimal.NewFromInt(50), Phone: "0712345678"})
	if !errors.Is(err, ErrGatewayFailure) {
		t.Fatalf("expected ErrGatewayFailure, got %v", err)
	}
	if len(repo.requests) != 0 {
		t.Fatal("failed push must not be recorded")
	}

	if _, err := svc.Charge(context.Background(), &ChargeRequest{Amount: decimal.Zero, Phone: "0712345678"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Charge(context.Background(), &ChargeRequest{Amount: decimal.NewFromInt(1), Phone: "12345"}); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func callbackBody(checkoutID string, resultCode int) Callback {
	return Callback{
		Status: resultCode == 0,
		Response: CallbackResponse{
			Amount:             decimal.NewFromInt(500),
			CheckoutRequestID:  checkoutID,
			ExternalReference:  "INV-1",
			MerchantRequestID:  "m-1",
			MpesaReceiptNumber: "SGL123",
			Phone:              "254712345678",
			ResultCode:         resultCode,
			ResultDesc:         "done",
			Status:             "Success",
		},
	}
}

func TestCallbackDispatchesByPurpose(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	completer := &recordingCompleter{}
	svc.RegisterCompleter(PurposeSuperlikes, completer)

	req, err := svc.Charge(ctx, &ChargeRequest{UserID: 1, Purpose: PurposeSuperlikes, Amount: decimal.NewFromInt(50), Phone: "0712345678"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}

	ok := callbackBody(req.CheckoutRequestID, 0)
	if err := svc.HandleCallback(ctx, &ok); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if err := svc.HandleCallback(ctx, &ok); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(repo.payments) != 1 {
		t.Fatalf("replay must not duplicate the payment row, got %d", len(repo.payments))
	}
	if len(completer.succeeded) != 2 {
		t.Fatalf("expected completion to run for each delivery, got %v", completer.succeeded)
	}

	other, _ := svc.Charge(ctx, &ChargeRequest{UserID: 2, Purpose: PurposeSuperlikes, Amount: decimal.NewFromInt(10), Phone: "0712345678"})
	failed := callbackBody(other.CheckoutRequestID, 1032)
	if err := svc.HandleCallback(ctx, &failed); err != nil {
		t.Fatalf("failed callback: %v", err)
	}
	if len(completer.failed) != 1 || completer.failed[0] != other.CheckoutRequestID {
		t.Fatalf("expected failure dispatch, got %v", completer.failed)
	}

	unknown := callbackBody("ws_unknown", 0)
	if err := svc.HandleCallback(ctx, &unknown); err != nil {
		t.Fatalf("unknown checkout should be stored and ignored: %v", err)
	}
	if _, ok := repo.payments["ws_unknown"]; !ok {
		t.Fatal("unknown payment should still be stored")
	}
	stored, err := svc.PaymentByCheckoutID(ctx, req.CheckoutRequestID)
	if err != nil || !stored.Succeeded() {
		t.Fatalf("expected stored confirmation for %s, got %+v, %v", req.CheckoutRequestID, stored, err)
	}
	if _, err := svc.PaymentByCheckoutID(ctx, "ws_never_paid"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}

	empty := callbackBody("", 0)
	if err := svc.HandleCallback(ctx, &empty); !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("expected ErrInvalidCallback, got %v", err)
	}
}

type stubValidator map[string]*utils.JWTClaims

func (s stubValidator) ValidateToken(_ context.Context, token string) (*utils.JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestCallbackRouteChecksToken(t *testing.T) {
	svc, _, _ := newTestService()
	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(svc, "s3cret"), auth.NewMiddleware(stubValidator{}))

	body, _ := json.Marshal(callbackBody("ws_x", 0))
	post := func(path string) int {
		req := httptest.NewRequest("POST", path, bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post("/api/v1/mpesa/callback"); code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", code)
	}
	if code := post("/api/v1/mpesa/callback?token=wrong"); code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", code)
	}
	if code := post("/api/v1/mpesa/callback?token=s3cret"); code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", code)
	}
}

func TestPlanPaymentRoute(t *testing.T) {
	svc, _, gw := newTestService()
	router := mux.NewRouter()
	mw := auth.NewMiddleware(stubValidator{
		"u1": {UserID: 1, UserType: auth.UserTypeCustomer, Type: utils.TokenTypeAccess},
	})
	RegisterRoutes(router, NewHandler(svc, ""), mw)

	do := func(method, path string, payload interface{}) int {
		var buf bytes.Buffer
		if payload != nil {
			json.NewEncoder(&buf).Encode(payload)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Authorization", "Bearer u1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("POST", "/api/v1/mpesa-requests", map[string]interface{}{"phone": "0712345678", "plan_id": 3}); code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", code)
	}
	if code := do("POST", "/api/v1/mpesa-requests", map[string]interface{}{"phone": "999", "plan_id": 3}); code != http.StatusBadRequest {
		t.Fatalf("bad phone: expected 400, got %d", code)
	}
	if code := do("GET", "/api/v1/mpesa-requests", nil); code != http.StatusForbidden {
		t.Fatalf("customer list: expected 403, got %d", code)
	}
	if code := do("GET", "/api/v1/mpesa-requests/me", nil); code != http.StatusOK {
		t.Fatalf("own list: expected 200, got %d", code)
	}
	if code := do("GET", "/api/v1/mpesa-payments", nil); code != http.StatusForbidden {
		t.Fatalf("payments as customer: expected 403, got %d", code)
	}

	gw.err = ErrGatewayFailure
	if code := do("POST", "/api/v1/mpesa-requests", map[string]interface{}{"phone": "0712345678", "plan_id": 3}); code != http.StatusBadGateway {
		t.Fatalf("gateway down: expected 502, got %d", code)
	}
}

type fakeExtender struct {
	status string
	calls  int
}

func (f *fakeExtender) ExtendIfExpired(_ context.Context, userID int64, planID *int64, days int) (*subscriptions.ExtendResult, error) {
	f.calls++
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	return &subscriptions.ExtendResult{
		Status:       f.status,
		Subscription: &subscriptions.Subscription{UserID: userID, PlanID: planID, EndDate: &end},
	}, nil
}

type grant struct {
	userID   int64
	features []string
	end      time.Time
}

type fakeGranter struct{ grants []grant }

func (f *fakeGranter) Grant(_ context.Context, userID int64, features []string, _, end time.Time) error {
	f.grants = append(f.grants, grant{userID, features, end})
	return nil
}

func TestSubscriptionCompleter(t *testing.T) {
	ext := &fakeExtender{status: subscriptions.ExtensionExtended}
	granter := &fakeGranter{}
	sms := notification.NewMockSMSService()
	c := NewSubscriptionCompleter(stubPlans{3: goldPlan()}, ext, granter, sms)
	c.now = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }

	planID := int64(3)
	req := &Request{UserID: 1, PlanID: &planID, Phone: "254712345678", CheckoutRequestID: "ws_1"}
	pay := &Payment{MpesaReceiptNumber: "SGL123"}

	if err := c.PaymentSucceeded(context.Background(), req, pay); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(granter.grants) != 1 || len(granter.grants[0].features) != 2 || !granter.grants[0].end.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected grants %+v", granter.grants)
	}
	if msgs := sms.Messages(); len(msgs) != 1 || msgs[0].To != "254712345678" {
		t.Fatalf("expected one receipt sms, got %+v", msgs)
	}

	ext.status = subscriptions.ExtensionStillActive
	if err := c.PaymentSucceeded(context.Background(), req, pay); err != nil {
		t.Fatalf("still active: %v", err)
	}
	if len(granter.grants) != 1 || len(sms.Messages()) != 1 {
		t.Fatal("a still-active subscription must not grant or notify again")
	}
}
