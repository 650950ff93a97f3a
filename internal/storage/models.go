// Package storage persists confirmed receipts to SQLite so the household
// has a queryable history of everything forwarded to the budget.
package storage

import (
	"time"

	"github.com/marchford/receipt-relay/internal/receipt"
)

// ReceiptRecord is one confirmed receipt as stored.
type ReceiptRecord struct {
	ID            string    `json:"id"`
	StoreName     string    `json:"storeName"`
	Date          string    `json:"date"`
	Source        string    `json:"source"`
	OriginalTotal int64     `json:"originalTotal"`
	CreditAmount  int64     `json:"creditAmount"`
	CreditTarget  string    `json:"creditTarget,omitempty"`
	Forwarded     bool      `json:"forwarded"`
	CreatedAt     time.Time `json:"createdAt"`

	// Categories carries the full per-category breakdown, stored as JSON.
	Categories map[string]*receipt.CategoryBreakdown `json:"categories"`

	CategoriesJSON string `json:"-"`
}

// Stats summarizes recorded receipts for the API.
type Stats struct {
	TotalReceipts int64            `json:"totalReceipts"`
	TotalCents    int64            `json:"totalCents"`
	BySource      map[string]int64 `json:"bySource"`
}
