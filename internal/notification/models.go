// internal/notification/models.go

package notification

import (
	"context"
)

// Email is a single outbound email
type Email struct {
	To      string
	Subject string
	Body    string // plain text
	HTML    string // optional
}

// SMS is a single outbound text message
type SMS struct {
	To      string // E.164 or 2547XXXXXXXX
	Message string
}

// EmailService delivers emails
type EmailService interface {
	SendEmail(ctx context.Context, email *Email) error
}

// SMSService delivers text messages
type SMSService interface {
	SendSMS(ctx context.Context, sms *SMS) error
}
