package utils

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := GenerateJWT(&JWTClaims{
		UserID:    42,
		Email:     "wanjiru@example.com",
		UserType:  "admin",
		Active:    true,
		Type:      TokenTypeAccess,
		ExpiresAt: now.Add(time.Hour).Unix(),
		IssuedAt:  now.Unix(),
		NotBefore: now.Unix(),
	}, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateJWT(token, "secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.UserType != "admin" || !claims.Active || claims.Type != TokenTypeAccess {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := ValidateJWT(token, "other-secret"); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestJWTExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token, err := GenerateJWT(&JWTClaims{
		UserID:    1,
		Type:      TokenTypeAccess,
		ExpiresAt: past.Add(time.Hour).Unix(),
		IssuedAt:  past.Unix(),
		NotBefore: past.Unix(),
	}, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateJWT(token, "secret"); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestValidateStruct(t *testing.T) {
	type buy struct {
		Amount int    `json:"amount" validate:"required,gt=0"`
		Phone  string `json:"phone" validate:"required,ke_phone"`
	}

	if err := ValidateStruct(buy{Amount: 5, Phone: "0712345678"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := ValidateStruct(buy{Amount: 0, Phone: "12345"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "Amount is required") || !strings.Contains(err.Error(), "Phone must be a valid") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNormalizeKenyanPhone(t *testing.T) {
	cases := map[string]string{
		"0712345678":    "254712345678",
		"+254712345678": "254712345678",
		"254112345678":  "254112345678",
	}
	for in, want := range cases {
		got, err := NormalizeKenyanPhone(in)
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}

	if _, err := NormalizeKenyanPhone("0812345678"); err == nil {
		t.Fatal("expected invalid prefix to fail")
	}
}

func TestParsePage(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?page=3&limit=500", nil)
	p := ParsePage(r)
	if p.Page != 3 || p.Limit != MaxPageLimit {
		t.Fatalf("unexpected page %+v", p)
	}
	if p.Offset() != 200 {
		t.Fatalf("expected offset 200, got %d", p.Offset())
	}

	r = httptest.NewRequest("GET", "/x?page=-1", nil)
	p = ParsePage(r)
	if p.Page != 1 || p.Limit != DefaultPageLimit {
		t.Fatalf("unexpected defaults %+v", p)
	}

	pg := NewPagination(Page{Page: 2, Limit: 10}, 21)
	if pg.TotalPages != 3 || pg.CurrentPage != 2 || pg.Total != 21 {
		t.Fatalf("unexpected pagination %+v", pg)
	}
}
