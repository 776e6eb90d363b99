// internal/notification/templates.go
// Message bodies for the emails and texts the service sends

package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

var passwordResetHTML = template.Must(template.New("password_reset").Parse(`<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for {{.ValidFor}}.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not ask for this you can ignore this email.</p>`))

// PasswordResetEmail builds the reset email for a user
func PasswordResetEmail(to, name, link, validFor string) (*Email, error) {
	var html bytes.Buffer
	data := map[string]string{"Name": name, "Link": link, "ValidFor": validFor}
	if err := passwordResetHTML.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render password reset email: %w", err)
	}

	return &Email{
		To:      to,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Hi %s,\n\nReset your password here (valid for %s):\n%s\n", name, validFor, link),
		HTML:    html.String(),
	}, nil
}

// TopUpReceiptSMS confirms a superlikes purchase
func TopUpReceiptSMS(phone string, superlikes int64, receipt string, balance int64) *SMS {
	return &SMS{
		To:      phone,
		Message: fmt.Sprintf("Payment %s received. %d superlikes added, new balance %d.", receipt, superlikes, balance),
	}
}

// SubscriptionReceiptSMS confirms a plan payment
func SubscriptionReceiptSMS(phone, planName, receipt, endDate string) *SMS {
	return &SMS{
		To:      phone,
		Message: fmt.Sprintf("Payment %s received for %s. Your subscription is active until %s.", receipt, planName, endDate),
	}
}
