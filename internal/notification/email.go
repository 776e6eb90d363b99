// internal/notification/email.go

package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"
)

// SMTPEmailService sends email through an SMTP relay
type SMTPEmailService struct {
	from     string
	fromName string
	dialer   *gomail.Dialer
}

// NewSMTPEmailService creates a new SMTP email service
func NewSMTPEmailService(host string, port int, username, password, from, fromName string) (EmailService, error) {
	if host == "" || username == "" || password == "" || from == "" {
		return nil, fmt.Errorf("incomplete SMTP configuration")
	}

	dialer := gomail.NewDialer(host, port, username, password)
	dialer.TLSConfig = &tls.Config{ServerName: host}

	return &SMTPEmailService{
		from:     from,
		fromName: fromName,
		dialer:   dialer,
	}, nil
}

// SendEmail sends a single email
func (s *SMTPEmailService) SendEmail(ctx context.Context, email *Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.from, s.fromName))
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)

	if email.HTML != "" {
		m.SetBody("text/html", email.HTML)
		if email.Body != "" {
			m.AddAlternative("text/plain", email.Body)
		}
	} else {
		m.SetBody("text/plain", email.Body)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}
	return nil
}

// SendGridEmailService sends email through the SendGrid API
type SendGridEmailService struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridEmailService creates a new SendGrid email service
func NewSendGridEmailService(apiKey, from, fromName string) (EmailService, error) {
	if apiKey == "" || from == "" {
		return nil, fmt.Errorf("incomplete SendGrid configuration")
	}
	return &SendGridEmailService{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}, nil
}

// SendEmail sends a single email via SendGrid
func (s *SendGridEmailService) SendEmail(ctx context.Context, email *Email) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		email.Subject,
		mail.NewEmail("", email.To),
		email.Body,
		email.HTML,
	)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
	}
	return nil
}

// MockEmailService records emails instead of sending them
type MockEmailService struct {
	mu   sync.Mutex
	Sent []Email
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

// SendEmail records the email
func (m *MockEmailService) SendEmail(ctx context.Context, email *Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, *email)
	log.Printf("Mock: email to %s: %s", email.To, email.Subject)
	return nil
}

// Emails returns a copy of the recorded emails
func (m *MockEmailService) Emails() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.Sent...)
}
