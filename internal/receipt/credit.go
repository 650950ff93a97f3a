package receipt

import (
	"math"
	"strings"
)

// CategoryAdjustment is the per-category result of distributing a credit:
// what the category's items cost, how much credit landed on it, and what is
// left to pay out of pocket.
type CategoryAdjustment struct {
	OriginalTotal int64 `json:"originalTotal"`
	CreditApplied int64 `json:"creditApplied"`
	OutOfPocket   int64 `json:"outOfPocket"`
}

// DistributeCredit computes how a credit spreads across the active
// categories. It is a pure function: inputs are never mutated and identical
// inputs always yield identical output.
//
// With a resolvable target category the credit lands there first, capped at
// the target's total; any remainder is split across the other active
// categories proportionally to their totals. Without a target (or when the
// target does not match any active category) the whole amount is split
// proportionally across all active categories.
//
// Each category's share is rounded independently, so the applied amounts can
// differ from the credit amount by a few cents in aggregate. That matches
// the documented behavior; callers must not "correct" it.
func DistributeCredit(categories map[string]*CategoryBreakdown, credit *CreditInfo) map[string]CategoryAdjustment {
	result := make(map[string]CategoryAdjustment)

	if credit == nil || credit.Amount == 0 {
		for key, breakdown := range categories {
			if !breakdown.Active() {
				continue
			}
			result[key] = CategoryAdjustment{
				OriginalTotal: breakdown.Total,
				CreditApplied: 0,
				OutOfPocket:   breakdown.Total,
			}
		}
		return result
	}

	targetKey, target := resolveTarget(categories, credit.TargetCategory)

	if target != nil {
		applied := min64(credit.Amount, target.Total)
		remaining := credit.Amount - applied

		result[targetKey] = CategoryAdjustment{
			OriginalTotal: target.Total,
			CreditApplied: applied,
			OutOfPocket:   max64(0, target.Total-applied),
		}

		var otherTotal int64
		for key, breakdown := range categories {
			if key != targetKey && breakdown.Active() {
				otherTotal += breakdown.Total
			}
		}

		for key, breakdown := range categories {
			if key == targetKey || !breakdown.Active() {
				continue
			}
			var share int64
			if remaining > 0 && otherTotal > 0 {
				proportion := float64(breakdown.Total) / float64(otherTotal)
				share = int64(math.Round(float64(remaining) * proportion))
			}
			result[key] = CategoryAdjustment{
				OriginalTotal: breakdown.Total,
				CreditApplied: share,
				OutOfPocket:   max64(0, breakdown.Total-share),
			}
		}
		return result
	}

	var grandTotal int64
	for _, breakdown := range categories {
		if breakdown.Active() {
			grandTotal += breakdown.Total
		}
	}

	for key, breakdown := range categories {
		if !breakdown.Active() {
			continue
		}
		var share int64
		if grandTotal > 0 {
			proportion := float64(breakdown.Total) / float64(grandTotal)
			share = int64(math.Round(float64(credit.Amount) * proportion))
		}
		result[key] = CategoryAdjustment{
			OriginalTotal: breakdown.Total,
			CreditApplied: share,
			OutOfPocket:   max64(0, breakdown.Total-share),
		}
	}
	return result
}

// resolveTarget finds the active category matching the requested target key,
// ignoring case. Returns ("", nil) when there is no match.
func resolveTarget(categories map[string]*CategoryBreakdown, target string) (string, *CategoryBreakdown) {
	if target == "" {
		return "", nil
	}
	for key, breakdown := range categories {
		if breakdown.Active() && strings.EqualFold(key, target) {
			return key, breakdown
		}
	}
	return "", nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
