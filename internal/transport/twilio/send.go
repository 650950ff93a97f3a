// Package twilio implements the SMS/MMS transport: the inbound webhook and
// the REST client used to send messages through a Twilio number.
package twilio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends SMS through the Twilio Messages API.
type Client struct {
	accountSID     string
	authToken      string
	fromNumber     string
	receiverNumber string
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewClient creates a Twilio client. receiverNumber is where the final
// summary is forwarded. logger may be nil.
func NewClient(accountSID, authToken, fromNumber, receiverNumber string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		accountSID:     accountSID,
		authToken:      authToken,
		fromNumber:     fromNumber,
		receiverNumber: receiverNumber,
		baseURL:        "https://api.twilio.com",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SendToSender replies to the submitting phone number.
func (c *Client) SendToSender(ctx context.Context, to, body string) error {
	return c.sendSMS(ctx, to, body)
}

// SendToReceiver forwards a message to the configured receiver number.
func (c *Client) SendToReceiver(ctx context.Context, body string) error {
	return c.sendSMS(ctx, c.receiverNumber, body)
}

func (c *Client) sendSMS(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("twilio send failed", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("twilio API error: %d", resp.StatusCode)
	}
	return nil
}
