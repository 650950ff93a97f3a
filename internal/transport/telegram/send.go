// Package telegram implements the Telegram bot transport: the webhook that
// feeds inbound messages into the conversation flow and the client used to
// send replies and resolve photo URLs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the Telegram Bot API for one bot token.
type Client struct {
	token          string
	receiverChatID string
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewClient creates a Telegram client. receiverChatID is the chat the final
// summary is forwarded to. logger may be nil.
func NewClient(token, receiverChatID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		token:          token,
		receiverChatID: receiverChatID,
		baseURL:        "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SendToSender replies to the submitting user's chat.
func (c *Client) SendToSender(ctx context.Context, chatID, text string) error {
	return c.sendMessage(ctx, chatID, text)
}

// SendToReceiver forwards a message to the configured receiver chat.
func (c *Client) SendToReceiver(ctx context.Context, text string) error {
	return c.sendMessage(ctx, c.receiverChatID, text)
}

func (c *Client) sendMessage(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("telegram sendMessage failed", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("telegram API error: %d", resp.StatusCode)
	}
	return nil
}

// FileURL resolves a photo file_id to a downloadable URL via getFile.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.baseURL, c.token, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get file: status %d", resp.StatusCode)
	}

	var data struct {
		OK     bool `json:"ok"`
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to parse getFile response: %w", err)
	}
	if !data.OK {
		return "", fmt.Errorf("failed to get file path from Telegram")
	}

	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, data.Result.FilePath), nil
}
