package receipt

import "strings"

// Totals aggregates subtotal, fees, and tax across every category.
type Totals struct {
	Subtotal int64
	Fees     int64
	Tax      int64
	Total    int64
}

// ComputeTotals sums subtotal, fees, and tax over all categories, item-bearing
// or not. Total is the pre-credit item cost.
func ComputeTotals(r *ParsedReceipt) Totals {
	var t Totals
	for _, breakdown := range r.Categories {
		t.Subtotal += breakdown.Subtotal
		t.Fees += breakdown.Fees
		t.Tax += breakdown.Tax
	}
	t.Total = t.Subtotal + t.Fees + t.Tax
	return t
}

// mismatchThresholdCents tolerates a one-cent OCR rounding drift before the
// "original receipt total" note is shown.
const mismatchThresholdCents = 1

// HasTotalMismatch reports whether the computed total disagrees with the
// store-printed total by more than the tolerated drift. A receipt paid partly
// by credit never reports a mismatch: the credit is assumed to explain the
// difference.
func HasTotalMismatch(r *ParsedReceipt) bool {
	if r.HasCredit() {
		return false
	}
	diff := ComputeTotals(r).Total - r.OriginalTotal
	if diff < 0 {
		diff = -diff
	}
	return diff > mismatchThresholdCents
}

// categoryDetail renders one category's header line plus its item lines.
// Returns "" for categories without items.
func categoryDetail(label string, breakdown *CategoryBreakdown) string {
	if !breakdown.Active() {
		return ""
	}

	var lines []string
	switch {
	case breakdown.Fees > 0 && breakdown.Tax > 0:
		lines = append(lines, label+" ("+FormatMoney(breakdown.Subtotal)+" + "+FormatMoney(breakdown.Fees)+" fees + "+FormatMoney(breakdown.Tax)+" tax = "+FormatMoney(breakdown.Total)+")")
	case breakdown.Fees > 0:
		lines = append(lines, label+" ("+FormatMoney(breakdown.Subtotal)+" + "+FormatMoney(breakdown.Fees)+" fees = "+FormatMoney(breakdown.Total)+")")
	case breakdown.Tax > 0:
		lines = append(lines, label+" ("+FormatMoney(breakdown.Subtotal)+" + "+FormatMoney(breakdown.Tax)+" tax = "+FormatMoney(breakdown.Total)+")")
	default:
		lines = append(lines, label+" ("+FormatMoney(breakdown.Total)+")")
	}

	for _, item := range breakdown.Items {
		lines = append(lines, "- "+item.Name+" "+FormatMoney(item.Price))
	}

	return strings.Join(lines, "\n")
}

// FormatConfirmationMessage renders the breakdown sent back to the submitting
// user for review. It is recomputed from the receipt on every call so it
// always reflects the current category state.
func FormatConfirmationMessage(r *ParsedReceipt) string {
	lines := []string{"Here's the breakdown - reply YES to confirm:", ""}

	for _, key := range SortedKeys(r.Categories) {
		detail := categoryDetail(CategoryLabel(key), r.Categories[key])
		if detail != "" {
			lines = append(lines, detail, "")
		}
	}

	totals := ComputeTotals(r)

	lines = append(lines, "Subtotal: "+FormatMoney(totals.Subtotal))
	if totals.Fees > 0 {
		lines = append(lines, "Fees: "+FormatMoney(totals.Fees))
	}
	if totals.Tax > 0 {
		lines = append(lines, "Tax: "+FormatMoney(totals.Tax))
	}

	total := totals.Total
	if r.HasCredit() {
		lines = append(lines, "Credit: -"+FormatMoney(r.Credit.Amount))
		total -= r.Credit.Amount
		if total < 0 {
			total = 0
		}
	}
	lines = append(lines, "Total: "+FormatMoney(total))

	if HasTotalMismatch(r) {
		lines = append(lines, "", "(Note: Original receipt total was "+FormatMoney(r.OriginalTotal)+")")
	}

	return strings.Join(lines, "\n")
}

// FormatFinalSummary renders the per-category summary forwarded to the
// receiver after the user confirms. With a credit attached, each category
// line shows its out-of-pocket amount from DistributeCredit; without one it
// shows the plain category total.
func FormatFinalSummary(r *ParsedReceipt) string {
	lines := []string{r.StoreName + " - " + r.Date, ""}

	credited := r.HasCredit()
	var adjustments map[string]CategoryAdjustment
	if credited {
		adjustments = DistributeCredit(r.Categories, r.Credit)
	}

	var total int64
	for _, key := range SortedKeys(r.Categories) {
		breakdown := r.Categories[key]
		if !breakdown.Active() {
			continue
		}
		label := CategoryLabel(key)

		if credited {
			adj := adjustments[key]
			lines = append(lines, label+": "+FormatMoney(adj.OutOfPocket))
			total += adj.OutOfPocket
			continue
		}

		if breakdown.Tax > 0 {
			lines = append(lines, label+": "+FormatMoney(breakdown.Subtotal)+" (+"+FormatMoney(breakdown.Tax)+" tax)")
		} else {
			lines = append(lines, label+": "+FormatMoney(breakdown.Total))
		}
		total += breakdown.Total
	}

	lines = append(lines, "")
	if credited {
		lines = append(lines, "Credit: -"+FormatMoney(r.Credit.Amount))
	}
	lines = append(lines, "Total: "+FormatMoney(total))

	return strings.Join(lines, "\n")
}
