package notification

import (
	"context"
	"strings"
	"testing"
)

func TestPasswordResetEmail(t *testing.T) {
	email, err := PasswordResetEmail("amina@example.com", "Amina <3", "https://app.example/reset/abc", "1h0m0s")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if email.To != "amina@example.com" {
		t.Fatalf("unexpected recipient %s", email.To)
	}
	if !strings.Contains(email.HTML, "https://app.example/reset/abc") {
		t.Fatalf("link missing from html: %s", email.HTML)
	}
	if !strings.Contains(email.HTML, "Amina &lt;3") {
		t.Fatalf("expected name to be escaped: %s", email.HTML)
	}
	if !strings.Contains(email.Body, "1h0m0s") {
		t.Fatalf("validity missing from body: %s", email.Body)
	}
}

func TestMockServicesRecord(t *testing.T) {
	sms := NewMockSMSService()
	if err := sms.SendSMS(context.Background(), TopUpReceiptSMS("254712345678", 5, "QWE123", 12)); err != nil {
		t.Fatalf("send: %v", err)
	}
	got := sms.Messages()
	if len(got) != 1 || !strings.Contains(got[0].Message, "5 superlikes") {
		t.Fatalf("unexpected messages %+v", got)
	}

	mail := NewMockEmailService()
	mail.SendEmail(context.Background(), &Email{To: "a@b.c", Subject: "hi"})
	if len(mail.Emails()) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.Emails()))
	}
}

func TestToE164(t *testing.T) {
	if toE164("254712345678") != "+254712345678" {
		t.Fatal("expected plus prefix")
	}
	if toE164("+15550001111") != "+15550001111" {
		t.Fatal("expected unchanged number")
	}
}
