package dto

import (
	"time"

	"github.com/marchford/receipt-relay/internal/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Service:   "receipt-relay",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ReceiptListResponse wraps a page of receipt history.
type ReceiptListResponse struct {
	Receipts []storage.ReceiptRecord `json:"receipts"`
	Count    int                     `json:"count"`
}
