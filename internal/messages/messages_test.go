package messages

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

	"github.com/imadgeboyega/matchup-backend/internal/auth"
	"github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

type memRepo struct {
	nextID int64
	rows   map[int64]*Message
}

func newMemRepo() *memRepo { return &memRepo{rows: map[int64]*Message{}} }

func (m *memRepo) Create(_ context.Context, msg *Message) error {
	if msg.ReceiverID == 404 {
		return ErrReceiverNotFound
	}
	m.nextID++
	msg.ID = m.nextID
	msg.Timestamp = time.Now()
	cp := *msg
	m.rows[msg.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*Message, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f *ListFilter) ([]*Message, int, error) {
	out := []*Message{}
	for _, r := range m.rows {
		if r.SenderID != f.UserID && r.ReceiverID != f.UserID {
			continue
		}
		if f.WithUser != nil && r.SenderID != *f.WithUser && r.ReceiverID != *f.WithUser {
			continue
		}
		if f.IsRead != nil && r.IsRead != *f.IsRead {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, msg *Message) error {
	cp := *msg
	m.rows[msg.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

type event struct {
	userID int64
	kind   string
}

type recordingPublisher struct{ events []event }

func (p *recordingPublisher) Publish(userID int64, kind string, _ interface{}) {
	p.events = append(p.events, event{userID, kind})
}

func TestSendPublishesToReceiver(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(newMemRepo(), pub)

	msg, err := svc.Send(context.Background(), 1, &SendMessageRequest{ReceiverID: 2, Message: "  hi  "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Message != "hi" {
		t.Fatalf("expected trimmed text, got %q", msg.Message)
	}
	if len(pub.events) != 1 || pub.events[0].userID != 2 || pub.events[0].kind != "message.new" {
		t.Fatalf("unexpected events %+v", pub.events)
	}

	if _, err := svc.Send(context.Background(), 1, &SendMessageRequest{ReceiverID: 1, Message: "me"}); !errors.Is(err, ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
	if _, err := svc.Send(context.Background(), 1, &SendMessageRequest{ReceiverID: 404, Message: "x"}); !errors.Is(err, ErrReceiverNotFound) {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatal("failed sends must not publish")
	}
}

func TestUpdateRoles(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()
	msg, _ := svc.Send(ctx, 1, &SendMessageRequest{ReceiverID: 2, Message: "hello"})

	read := true
	if _, err := svc.Update(ctx, 1, msg.ID, &UpdateMessageRequest{IsRead: &read}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("sender cannot mark read, got %v", err)
	}
	got, err := svc.Update(ctx, 2, msg.ID, &UpdateMessageRequest{IsRead: &read})
	if err != nil || !got.IsRead {
		t.Fatalf("receiver mark read: %v %+v", err, got)
	}

	text := "hello again"
	if _, err := svc.Update(ctx, 2, msg.ID, &UpdateMessageRequest{Message: &text}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("receiver cannot edit, got %v", err)
	}
	if got, err = svc.Update(ctx, 1, msg.ID, &UpdateMessageRequest{Message: &text}); err != nil || got.Message != text {
		t.Fatalf("sender edit: %v %+v", err, got)
	}

	if err := svc.Delete(ctx, 2, msg.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("receiver cannot delete, got %v", err)
	}
	if err := svc.Delete(ctx, 1, msg.ID); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if _, err := svc.Get(ctx, 1, msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

type stubValidator map[string]*utils.JWTClaims

func (s stubValidator) ValidateToken(_ context.Context, token string) (*utils.JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestRoutesScopeToCaller(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	svc.Send(ctx, 1, &SendMessageRequest{ReceiverID: 2, Message: "a"})
	svc.Send(ctx, 3, &SendMessageRequest{ReceiverID: 4, Message: "b"})
	private, _ := svc.Send(ctx, 3, &SendMessageRequest{ReceiverID: 4, Message: "c"})

	router := mux.NewRouter()
	mw := auth.NewMiddleware(stubValidator{
		"u2": {UserID: 2, UserType: auth.UserTypeCustomer, Type: utils.TokenTypeAccess},
	})
	RegisterRoutes(router, NewHandler(svc), mw)

	req := httptest.NewRequest("GET", "/api/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer u2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	var body struct {
		Data struct {
			Messages   []Message        `json:"messages"`
			Pagination utils.Pagination `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Messages) != 1 || body.Data.Pagination.Total != 1 {
		t.Fatalf("expected only the caller's message, got %+v", body.Data)
	}

	req = httptest.NewRequest("GET", "/api/v1/messages/"+jsonID(private.ID), nil)
	req.Header.Set("Authorization", "Bearer u2")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider get: expected 403, got %d", rec.Code)
	}

	payload, _ := json.Marshal(map[string]interface{}{"receiver_id": 1})
	req = httptest.NewRequest("POST", "/api/v1/messages", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer u2")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing message: expected 400, got %d", rec.Code)
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
