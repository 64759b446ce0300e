package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Match is a resolved coincidence-of-wants pair. Both intents are fully
// consumed against each other; a match is terminal for both sides.
type Match struct {
	A Intent `json:"a"`
	B Intent `json:"b"`
}

// Hop is one simulated swap inside a route
type Hop struct {
	VenueID   string          `json:"venue_id"`
	ChainID   int             `json:"chain_id"`
	TokenIn   string          `json:"token_in"`
	TokenOut  string          `json:"token_out"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`
}

// Route is an ordered sequence of venues an intent was simulated through.
// Utility is the sum of per-hop output amounts; this additive accounting
// mirrors the settlement layer's scoring and is intentionally not a
// multiplicative end-to-end value.
type Route struct {
	Hops      []Hop           `json:"hops"`
	AmountOut decimal.Decimal `json:"amount_out"`
	Utility   decimal.Decimal `json:"utility"`
}

// VenueIDs returns the venue ids along the route in hop order
func (r *Route) VenueIDs() []string {
	ids := make([]string, 0, len(r.Hops))
	for _, hop := range r.Hops {
		ids = append(ids, hop.VenueID)
	}
	return ids
}

// CrossesChains reports whether any hop settles on a different chain than the
// given origin
func (r *Route) CrossesChains(originChain int) bool {
	for _, hop := range r.Hops {
		if hop.ChainID != originChain {
			return true
		}
	}
	return false
}

// MatchType classifies how an intent was resolved in a batch run.
type MatchType string

const (
	MatchCoW            MatchType = "cow"
	MatchPool           MatchType = "pool"
	MatchCrossChainPool MatchType = "cross_chain_pool"
	MatchQueued         MatchType = "queued"
)

// Execution is the final per-intent decision handed to the settlement layer.
// Every intent in a batch gets exactly one. GasByChain breaks the gas share
// of TotalCost down by the chain it is spent on; bridge fees are part of
// TotalCost only.
type Execution struct {
	Intent             Intent                  `json:"intent"`
	MatchType          MatchType               `json:"match_type"`
	CounterpartyID     string                  `json:"counterparty_id,omitempty"`
	VenueIDs           []string                `json:"venue_ids,omitempty"`
	ExpectedOutput     decimal.Decimal         `json:"expected_output"`
	TotalCost          decimal.Decimal         `json:"total_cost"`
	GasByChain         map[int]decimal.Decimal `json:"gas_by_chain,omitempty"`
	RequiresCrossChain bool                    `json:"requires_cross_chain"`
	TargetChain        int                     `json:"target_chain,omitempty"`
	QueueReason        string                  `json:"queue_reason,omitempty"`
}

// Utility is the net value of the execution
func (e *Execution) Utility() decimal.Decimal {
	return e.ExpectedOutput.Sub(e.TotalCost)
}

// ExecutionPlan is the output of one batch run: one execution per input
// intent, in no particular order
type ExecutionPlan struct {
	Executions []Execution `json:"executions"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Count returns the number of executions with the given match type
func (p *ExecutionPlan) Count(mt MatchType) int {
	n := 0
	for i := range p.Executions {
		if p.Executions[i].MatchType == mt {
			n++
		}
	}
	return n
}
