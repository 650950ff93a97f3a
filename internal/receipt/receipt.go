// Package receipt defines the money and category model for a parsed
// receipt, the credit distribution engine, and the reconciliation and
// formatting helpers built on top of it.
//
// All monetary values are integer cents.
package receipt

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Item is a single line item on a receipt.
type Item struct {
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	Taxable bool   `json:"taxable"`
	Unclear bool   `json:"unclear,omitempty"`
}

// CategoryBreakdown holds the items and totals for one budget category.
// Invariant: Total == Subtotal + Fees + Tax.
type CategoryBreakdown struct {
	Items    []Item `json:"items"`
	Subtotal int64  `json:"subtotal"`
	Fees     int64  `json:"fees"`
	Tax      int64  `json:"tax"`
	Total    int64  `json:"total"`
}

// Active reports whether the category has at least one item.
func (b *CategoryBreakdown) Active() bool {
	return b != nil && len(b.Items) > 0
}

// CreditInfo describes a gift card, store credit, or rewards deduction
// applied against the receipt. TargetCategory is an optional category key
// the user asked the credit to be applied to first (matched
// case-insensitively).
type CreditInfo struct {
	Amount         int64  `json:"amount"`
	TargetCategory string `json:"targetCategory,omitempty"`
}

// ParsedReceipt is the normalized output of the receipt parser.
// OriginalTotal is what was actually paid out of pocket: with a credit it is
// the sum of category totals minus the credit amount, without one it is the
// store-printed total (which may drift from the computed sum by OCR error).
type ParsedReceipt struct {
	StoreName        string                        `json:"storeName"`
	Date             string                        `json:"date"`
	MissingStoreName bool                          `json:"missingStoreName"`
	MissingDate      bool                          `json:"missingDate"`
	Categories       map[string]*CategoryBreakdown `json:"categories"`
	OriginalTotal    int64                         `json:"originalTotal"`
	HasUnclearItems  bool                          `json:"hasUnclearItems,omitempty"`
	HasMissingItems  bool                          `json:"hasMissingItems,omitempty"`
	Credit           *CreditInfo                   `json:"credit,omitempty"`
}

// HasCredit reports whether a positive credit is attached.
func (r *ParsedReceipt) HasCredit() bool {
	return r.Credit != nil && r.Credit.Amount > 0
}

// NeedsStoreInfo reports whether the store name or date still has to be
// collected from the user before the receipt can be confirmed.
func (r *ParsedReceipt) NeedsStoreInfo() bool {
	return r.MissingStoreName || r.MissingDate
}

// canonicalOrder fixes the display order of the built-in categories.
// Custom categories sort alphabetically after these; unknown renders last.
var canonicalOrder = []string{
	"groceries",
	"babySupplies",
	"bathroomSupplies",
	"houseSupplies",
	"pharmacy",
	"charity",
}

var categoryLabels = map[string]string{
	"groceries":        "GROCERIES",
	"babySupplies":     "BABY SUPPLIES",
	"bathroomSupplies": "BATHROOM SUPPLIES",
	"houseSupplies":    "HOUSE SUPPLIES",
	"pharmacy":         "PHARMACY",
	"charity":          "CHARITY",
	"unknown":          "UNKNOWN",
}

// CategoryLabel returns the display label for a category key. Custom
// camelCase keys are expanded to upper case words ("petSupplies" ->
// "PET SUPPLIES").
func CategoryLabel(key string) string {
	if label, ok := categoryLabels[key]; ok {
		return label
	}
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// SortedKeys returns the receipt's category keys in display order:
// built-in categories first in canonical order, then custom categories
// alphabetically, with unknown always last.
func SortedKeys(categories map[string]*CategoryBreakdown) []string {
	keys := make([]string, 0, len(categories))

	seen := make(map[string]bool, len(categories))
	for _, key := range canonicalOrder {
		if _, ok := categories[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	var custom []string
	for key := range categories {
		if !seen[key] && key != "unknown" {
			custom = append(custom, key)
		}
	}
	sort.Strings(custom)
	keys = append(keys, custom...)

	if _, ok := categories["unknown"]; ok {
		keys = append(keys, "unknown")
	}

	return keys
}

// FormatMoney renders cents as a dollar amount, e.g. 449 -> "$4.49".
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
