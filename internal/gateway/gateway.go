// Package gateway sits between the conversation flow and the receipt
// parser. It validates parser output and converts every failure into the
// single user-facing retry message, keeping provider error detail in the
// logs only.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marchford/receipt-relay/internal/receipt"
)

// ErrProcessing is the only error surfaced to the chat user. The underlying
// cause is logged, never sent.
var ErrProcessing = errors.New("An error occurred processing the receipt. Please try again.")

// ReceiptParser produces a structured receipt from images and/or text.
type ReceiptParser interface {
	ParseReceipt(ctx context.Context, imageURLs []string, textContent, userGuidance string) (*receipt.ParsedReceipt, error)
}

// Gateway wraps a ReceiptParser for the conversation state machine.
type Gateway struct {
	parser ReceiptParser
	logger *slog.Logger
}

// New creates a gateway. logger may be nil.
func New(parser ReceiptParser, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{parser: parser, logger: logger}
}

// Process parses the receipt input. Category totals are returned exactly as
// parsed: credits never mutate them, out-of-pocket amounts are derived at
// display time by the formatting layer.
func (g *Gateway) Process(ctx context.Context, images []string, text, guidance string) (*receipt.ParsedReceipt, error) {
	parsed, err := g.parser.ParseReceipt(ctx, images, text, guidance)
	if err != nil {
		g.logger.Error("receipt parsing failed", "error", err, "images", len(images))
		return nil, ErrProcessing
	}

	if len(parsed.Categories) == 0 {
		g.logger.Error("parser returned no categories", "store", parsed.StoreName)
		return nil, ErrProcessing
	}

	if parsed.HasCredit() {
		g.logger.Info("receipt carries a credit",
			"amount", parsed.Credit.Amount,
			"target", parsed.Credit.TargetCategory)
	}
	return parsed, nil
}
