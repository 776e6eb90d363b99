// internal/notification/sms.go

package notification

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMSService implements SMS notifications using Twilio
type TwilioSMSService struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSMSService creates a new Twilio SMS service
func NewTwilioSMSService(accountSID, authToken, from string) (SMSService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("incomplete Twilio configuration")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSService{
		client: client,
		from:   from,
	}, nil
}

// SendSMS sends a single SMS
func (s *TwilioSMSService) SendSMS(ctx context.Context, sms *SMS) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toE164(sms.To))
	params.SetFrom(s.from)
	params.SetBody(sms.Message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS via Twilio: %w", err)
	}

	if resp.Sid != nil {
		log.Printf("Sent SMS to %s with SID: %s", sms.To, *resp.Sid)
	}
	return nil
}

// toE164 prefixes a bare MSISDN such as 2547XXXXXXXX with '+'
func toE164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}

// MockSMSService records messages instead of sending them
type MockSMSService struct {
	mu   sync.Mutex
	Sent []SMS
}

// NewMockSMSService creates a new mock SMS service
func NewMockSMSService() *MockSMSService {
	return &MockSMSService{}
}

// SendSMS records the message
func (m *MockSMSService) SendSMS(ctx context.Context, sms *SMS) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, *sms)
	log.Printf("Mock: SMS to %s: %s", sms.To, sms.Message)
	return nil
}

// Messages returns a copy of the recorded messages
func (m *MockSMSService) Messages() []SMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SMS(nil), m.Sent...)
}
