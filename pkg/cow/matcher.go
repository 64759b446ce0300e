// Package cow finds coincidence-of-wants pairs: intents whose sell and buy
// tokens are exact opposites and whose amounts cover each other's minimums,
// settled directly without touching any liquidity venue.
package cow

import (
	"github.com/cowmatch-hq/solver/pkg/models"
)

// candidate is a compatible pair discovered in the scan phase, recorded by
// index into the input slice
type candidate struct {
	i, j int
}

// FindMatches returns a conflict-free set of direct matches over the intent
// slice. The scan is O(n^2) over all unique pairs, which is fine for the
// tens-to-low-hundreds batch sizes this solver sees.
//
// Selection is greedy first-found in input order: once an intent is matched
// it is skipped for the rest of the pass, so the result is "any valid
// pairing", not an optimal partition. The outcome is deterministic for a
// given input order.
func FindMatches(intents []models.Intent) []models.Match {
	// Phase 1: collect every compatible pair without mutating anything.
	var candidates []candidate
	for i := 0; i < len(intents); i++ {
		for j := i + 1; j < len(intents); j++ {
			if Compatible(&intents[i], &intents[j]) {
				candidates = append(candidates, candidate{i: i, j: j})
			}
		}
	}

	// Phase 2: pick a conflict-free subset in scan order.
	matched := make(map[int]bool, len(intents))
	matches := make([]models.Match, 0, len(candidates))
	for _, c := range candidates {
		if matched[c.i] || matched[c.j] {
			continue
		}
		matched[c.i] = true
		matched[c.j] = true
		matches = append(matches, models.Match{A: intents[c.i], B: intents[c.j]})
	}
	return matches
}

// Compatible reports whether two intents can clear directly against each
// other: opposite token pairs, and each side's sell amount covers the other
// side's minimum buy amount. The surplus beyond the counterparty's minimum is
// not redistributed; a match consumes both sides in full.
func Compatible(a, b *models.Intent) bool {
	if a.SellToken != b.BuyToken || a.BuyToken != b.SellToken {
		return false
	}
	if a.SellAmount.LessThan(b.MinBuyAmount) {
		return false
	}
	if b.SellAmount.LessThan(a.MinBuyAmount) {
		return false
	}
	return true
}

// MatchedIDs returns the set of intent ids consumed by the given matches
func MatchedIDs(matches []models.Match) map[string]bool {
	ids := make(map[string]bool, len(matches)*2)
	for i := range matches {
		ids[matches[i].A.ID] = true
		ids[matches[i].B.ID] = true
	}
	return ids
}
