package storage

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marchford/receipt-relay/internal/receipt"
)

// ReceiptRecorder adapts a Repository to the conversation flow's Recorder
// collaborator: it turns a confirmed ParsedReceipt into a history row.
type ReceiptRecorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewReceiptRecorder creates a recorder. logger may be nil.
func NewReceiptRecorder(repo Repository, logger *slog.Logger) *ReceiptRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptRecorder{repo: repo, logger: logger}
}

// RecordConfirmed persists a confirmed receipt.
func (r *ReceiptRecorder) RecordConfirmed(_ context.Context, parsed *receipt.ParsedReceipt, source string, forwarded bool) error {
	record := &ReceiptRecord{
		ID:            uuid.NewString(),
		StoreName:     parsed.StoreName,
		Date:          parsed.Date,
		Source:        source,
		OriginalTotal: parsed.OriginalTotal,
		Forwarded:     forwarded,
		Categories:    parsed.Categories,
	}
	if parsed.HasCredit() {
		record.CreditAmount = parsed.Credit.Amount
		record.CreditTarget = parsed.Credit.TargetCategory
	}

	if err := r.repo.SaveReceipt(record); err != nil {
		return err
	}
	r.logger.Info("recorded receipt", "id", record.ID, "store", record.StoreName, "source", source)
	return nil
}
