package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marchford/receipt-relay/internal/conversation"
)

const storeInfoModel = "gpt-4o-mini"

// StoreInfoParser extracts a store name and/or date from a free-text reply.
// Dates are normalized to MM/DD/YY; relative terms like "today" and
// "yesterday" are resolved against the injected clock.
type StoreInfoParser struct {
	client OpenAIClient
	logger *slog.Logger
	now    func() time.Time
}

// NewStoreInfoParser creates the extractor. logger and now may be nil.
func NewStoreInfoParser(client OpenAIClient, logger *slog.Logger, now func() time.Time) *StoreInfoParser {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &StoreInfoParser{client: client, logger: logger, now: now}
}

// ExtractStoreInfo asks the model to pull the needed fields out of the
// user's reply. Fields the user did not mention come back empty.
func (p *StoreInfoParser) ExtractStoreInfo(ctx context.Context, text string, needStoreName, needDate bool) (conversation.StoreInfo, error) {
	var needing []string
	if needStoreName {
		needing = append(needing, "store name")
	}
	if needDate {
		needing = append(needing, "date")
	}
	if len(needing) == 0 {
		return conversation.StoreInfo{}, nil
	}

	today := p.now()
	currentDate := fmt.Sprintf("%d/%d/%02d", int(today.Month()), today.Day(), today.Year()%100)

	prompt := fmt.Sprintf(`The user was asked to provide the %s for a receipt. Extract the information from their response.

Today's date is %s.

User's response: %q

Extract the store name and/or date if provided. Return a JSON object {"storeName": string|null, "date": string|null} with null for any field not mentioned.
If a date is provided, convert it to MM/DD/YY format (e.g., "11/26/25"). Handle relative dates like "today" or "yesterday" using today's date.`,
		strings.Join(needing, " and "), currentDate, text)

	request := ChatCompletionRequest{
		Model:          storeInfoModel,
		Temperature:    0.1,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	}

	response, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return conversation.StoreInfo{}, err
	}
	if len(response.Choices) == 0 {
		return conversation.StoreInfo{}, fmt.Errorf("no response from OpenAI")
	}

	var extracted struct {
		StoreName *string `json:"storeName"`
		Date      *string `json:"date"`
	}
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &extracted); err != nil {
		return conversation.StoreInfo{}, fmt.Errorf("failed to parse store info response: %w", err)
	}

	var info conversation.StoreInfo
	if extracted.StoreName != nil {
		info.StoreName = strings.TrimSpace(*extracted.StoreName)
	}
	if extracted.Date != nil {
		info.Date = strings.TrimSpace(*extracted.Date)
	}
	p.logger.Debug("extracted store info", "hasStoreName", info.StoreName != "", "hasDate", info.Date != "")
	return info, nil
}
