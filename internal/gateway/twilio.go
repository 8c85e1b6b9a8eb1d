package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/wellbeing-survey-service/internal/config"
	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender sends messages through the Twilio REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	client     *http.Client
}

// NewTwilioSender creates the live variant from SMS configuration.
func NewTwilioSender(cfg config.SMSConfig) *TwilioSender {
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the variant in logs.
func (t *TwilioSender) Name() string { return "twilio" }

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts the message to Twilio. Network failures and 5xx responses are
// transient; 4xx responses (bad destination, bad request) are permanent.
func (t *TwilioSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrGatewayPermanent, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayTransient, err)
	}
	defer resp.Body.Close()

	var parsed twilioMessageResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrGatewayTransient, decodeErr)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: provider returned %d", domain.ErrGatewayTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: provider rejected message (%d %s)", domain.ErrGatewayPermanent, parsed.Code, parsed.Message)
	}

	return &SendResult{ProviderSID: parsed.SID}, nil
}
