package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marchford/receipt-relay/internal/receipt"
)

const defaultModel = "gpt-4o"

// maxToolRounds caps how many verifyTotals exchanges a single parse may do
// before we demand the final output.
const maxToolRounds = 3

var verifyTotalsTool = Tool{
	Type: "function",
	Function: ToolFunction{
		Name:        "verifyTotals",
		Description: "Sanity check that category totals sum to the expected receipt total. Returns whether they match and any difference.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"categoryTotals": {
					"type": "array",
					"items": {"type": "number"},
					"description": "Array of total values (in cents) for each category"
				},
				"expectedTotal": {
					"type": "number",
					"description": "The expected total from the receipt (in cents)"
				}
			},
			"required": ["categoryTotals", "expectedTotal"]
		}`),
	},
}

// ReceiptParser handles receipt parsing using OpenAI
type ReceiptParser struct {
	client OpenAIClient
	model  string
	logger *slog.Logger
}

// NewReceiptParser creates a new receipt parser. logger may be nil.
func NewReceiptParser(client OpenAIClient, logger *slog.Logger) *ReceiptParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptParser{
		client: client,
		model:  defaultModel,
		logger: logger,
	}
}

// WithModel overrides the default chat model. Empty model is ignored.
func (p *ReceiptParser) WithModel(model string) *ReceiptParser {
	if model != "" {
		p.model = model
	}
	return p
}

// ParseReceipt categorizes a receipt from images and/or pasted text, with
// optional user guidance. The model is required to call verifyTotals before
// producing its final JSON; the tool result is computed locally and fed back.
func (p *ReceiptParser) ParseReceipt(ctx context.Context, imageURLs []string, textContent, userGuidance string) (*receipt.ParsedReceipt, error) {
	promptText := "Please categorize this receipt."
	if textContent != "" {
		promptText += "\n\nReceipt text:\n" + textContent
	}
	if userGuidance != "" {
		promptText += "\n\nUser instructions: " + userGuidance
	}

	content := []ContentPart{{Type: "text", Text: promptText}}
	for _, url := range imageURLs {
		content = append(content, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: url},
		})
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	}

	var final string
	for round := 0; ; round++ {
		request := ChatCompletionRequest{
			Model:       p.model,
			Temperature: 0.1,
			Messages:    messages,
		}
		if round < maxToolRounds {
			request.Tools = []Tool{verifyTotalsTool}
		}

		response, err := p.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return nil, err
		}
		if len(response.Choices) == 0 {
			return nil, fmt.Errorf("no response from OpenAI")
		}

		choice := response.Choices[0]
		if len(choice.Message.ToolCalls) == 0 {
			final = choice.Message.Content
			break
		}

		messages = append(messages, Message{
			Role:      "assistant",
			Content:   choice.Message.Content,
			ToolCalls: choice.Message.ToolCalls,
		})
		for _, call := range choice.Message.ToolCalls {
			result := p.runVerifyTotals(call)
			messages = append(messages, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	parsed, err := decodeReceipt(final)
	if err != nil {
		return nil, err
	}

	p.logger.Info("parsed receipt",
		"store", parsed.StoreName,
		"categories", len(parsed.Categories),
		"originalTotal", parsed.OriginalTotal,
		"hasCredit", parsed.HasCredit())
	return parsed, nil
}

// runVerifyTotals executes the verifyTotals tool call locally and returns a
// JSON result for the follow-up message. Malformed arguments produce an
// error payload rather than failing the parse.
func (p *ReceiptParser) runVerifyTotals(call ToolCall) string {
	if call.Function.Name != "verifyTotals" {
		return fmt.Sprintf(`{"error": "unknown tool %q"}`, call.Function.Name)
	}

	var args struct {
		CategoryTotals []int64 `json:"categoryTotals"`
		ExpectedTotal  int64   `json:"expectedTotal"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		p.logger.Warn("bad verifyTotals arguments", "error", err)
		return `{"error": "could not parse arguments"}`
	}

	var actualSum int64
	for _, total := range args.CategoryTotals {
		actualSum += total
	}
	difference := actualSum - args.ExpectedTotal

	message := "Totals match!"
	if difference != 0 {
		message = fmt.Sprintf("Mismatch of %d cents. Consider adding missing items to unknown category.", difference)
	}

	result, _ := json.Marshal(map[string]any{
		"valid":         difference == 0,
		"actualSum":     actualSum,
		"expectedTotal": args.ExpectedTotal,
		"difference":    difference,
		"message":       message,
	})
	return string(result)
}

// decodeReceipt unmarshals the model's final JSON into a ParsedReceipt,
// stripping any markdown code fences and normalizing optional fields.
func decodeReceipt(content string) (*receipt.ParsedReceipt, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed receipt.ParsedReceipt
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse receipt JSON: %w", err)
	}

	if parsed.Categories == nil {
		parsed.Categories = map[string]*receipt.CategoryBreakdown{}
	}
	for key, breakdown := range parsed.Categories {
		if breakdown == nil {
			delete(parsed.Categories, key)
		}
	}
	if parsed.Credit != nil && parsed.Credit.Amount <= 0 {
		parsed.Credit = nil
	}
	return &parsed, nil
}
