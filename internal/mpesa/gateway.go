// internal/mpesa/gateway.go

package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/imadgeboyega/matchup-backend/internal/metrics"
)

// STKPush is the payment request sent to the gateway
type STKPush struct {
	Amount            int64  `json:"amount"`
	PhoneNumber       string `json:"phone_number"`
	ChannelID         int    `json:"channel_id"`
	Provider          string `json:"provider"`
	ExternalReference string `json:"external_reference"`
	CallbackURL       string `json:"callback_url"`
}

// STKPushResponse is the gateway's acknowledgement of a push
type STKPushResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// Gateway submits STK pushes
type Gateway interface {
	Push(ctx context.Context, amount int64, phone, externalReference string) (*STKPushResponse, error)
}

// PayHeroClient talks to the PayHero v2 payments API
type PayHeroClient struct {
	baseURL     string
	authToken   string
	channelID   int
	callbackURL string
	httpClient  *http.Client
}

// NewPayHeroClient creates a gateway client. callbackURL already carries
// the webhook token.
func NewPayHeroClient(baseURL, authToken string, channelID int, callbackURL string, timeout time.Duration) *PayHeroClient {
	return &PayHeroClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		authToken:   authToken,
		channelID:   channelID,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Push sends an STK push. Any reply without success=true is an error.
func (c *PayHeroClient) Push(ctx context.Context, amount int64, phone, externalReference string) (resp *STKPushResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveGateway(start, err) }()

	body, err := json.Marshal(STKPush{
		Amount:            amount,
		PhoneNumber:       phone,
		ChannelID:         c.channelID,
		Provider:          "m-pesa",
		ExternalReference: externalReference,
		CallbackURL:       c.callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stk push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build stk push: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayFailure, res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out STKPushResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrGatewayFailure, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: push rejected with status %q", ErrGatewayFailure, out.Status)
	}
	if out.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", ErrGatewayFailure)
	}
	return &out, nil
}
