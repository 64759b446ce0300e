package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurveType tags the swap-curve a venue prices against.
type CurveType string

const (
	CurveConstantProduct CurveType = "constant-product"
	CurveStable          CurveType = "stable"
	CurveWeighted        CurveType = "weighted"
)

// Venue is a snapshot of one liquidity pool. Reserves are read wholesale from
// chain state and never mutated by the solver; a fresh snapshot replaces the
// old one on every catalog refresh.
type Venue struct {
	ID       string                     `json:"id"`
	Address  string                     `json:"address"`
	ChainID  int                        `json:"chain_id"`
	Tokens   [2]string                  `json:"tokens"`
	Reserves map[string]decimal.Decimal `json:"reserves"`
	Weights  map[string]decimal.Decimal `json:"weights,omitempty"`
	Fee      decimal.Decimal            `json:"fee"`
	Curve    CurveType                  `json:"curve"`
	GasCost  decimal.Decimal            `json:"gas_cost"`
}

// HasToken reports whether the venue holds the given token on either side
func (v *Venue) HasToken(token string) bool {
	return v.Tokens[0] == token || v.Tokens[1] == token
}

// OtherToken returns the venue token paired against the given one
func (v *Venue) OtherToken(token string) (string, bool) {
	switch token {
	case v.Tokens[0]:
		return v.Tokens[1], true
	case v.Tokens[1]:
		return v.Tokens[0], true
	}
	return "", false
}

// Reserve returns the snapshot reserve for a token, zero if unknown
func (v *Venue) Reserve(token string) decimal.Decimal {
	return v.Reserves[token]
}

// Weight returns the pool weight for a token, defaulting to 0.5 when the
// venue carries no explicit weights
func (v *Venue) Weight(token string) decimal.Decimal {
	if w, ok := v.Weights[token]; ok {
		return w
	}
	return decimal.NewFromFloat(0.5)
}

// Validate checks that the venue snapshot is usable for routing
func (v *Venue) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("venue has no id")
	}
	if v.Tokens[0] == "" || v.Tokens[1] == "" || v.Tokens[0] == v.Tokens[1] {
		return fmt.Errorf("venue %s has invalid token pair %v", v.ID, v.Tokens)
	}
	if v.Fee.IsNegative() || v.Fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("venue %s fee %s outside [0,1)", v.ID, v.Fee)
	}
	for _, token := range v.Tokens {
		if !v.Reserve(token).IsPositive() {
			return fmt.Errorf("venue %s has non-positive reserve for %s", v.ID, token)
		}
	}
	return nil
}
