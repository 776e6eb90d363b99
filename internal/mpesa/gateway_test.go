package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPayHeroPush(t *testing.T) {
	var got STKPush
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/payments" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Basic abc" {
			t.Errorf("unexpected Authorization %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"status":"QUEUED","reference":"ref-1","CheckoutRequestID":"ws_CO_1"}`))
	}))
	defer srv.Close()

	client := NewPayHeroClient(srv.URL+"/", "Basic abc", 42, "https://api.example.com/cb?token=t", time.Second)
	resp, err := client.Push(context.Background(), 150, "254712345678", "INV-1")
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_1" || resp.Reference != "ref-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	want := STKPush{
		Amount:            150,
		PhoneNumber:       "254712345678",
		ChannelID:         42,
		Provider:          "m-pesa",
		ExternalReference: "INV-1",
		CallbackURL:       "https://api.example.com/cb?token=t",
	}
	if got != want {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestPayHeroPushFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"rejected", http.StatusOK, `{"success":false,"status":"FAILED"}`},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"garbage", http.StatusOK, `not json`},
		{"no checkout id", http.StatusOK, `{"success":true,"status":"QUEUED"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewPayHeroClient(srv.URL, "t", 1, "cb", time.Second)
			if _, err := client.Push(context.Background(), 10, "254712345678", "INV"); !errors.Is(err, ErrGatewayFailure) {
				t.Fatalf("expected ErrGatewayFailure, got %v", err)
			}
		})
	}
}

func TestPayHeroPushHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewPayHeroClient(srv.URL, "t", 1, "cb", 5*time.Second)
	if _, err := client.Push(ctx, 10, "254712345678", "INV"); !errors.Is(err, ErrGatewayFailure) {
		t.Fatalf("expected ErrGatewayFailure, got %v", err)
	}
}
