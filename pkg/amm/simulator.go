// Package amm simulates single swaps against liquidity venue snapshots.
// All functions are pure: the same inputs always produce the same output and
// venue reserves are never modified.
package amm

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/models"
)

// ErrInfeasible marks a swap that is structurally impossible against the
// venue snapshot. It is a normal outcome, not a failure: callers skip the
// candidate and move on.
var ErrInfeasible = errors.New("swap infeasible")

// DefaultLiquidityFraction caps the input amount at this share of the
// input-side reserve to bound slippage
var DefaultLiquidityFraction = decimal.NewFromFloat(0.3)

// Simulator computes swap outputs for venue snapshots under a configurable
// depth limit
type Simulator struct {
	liquidityFraction decimal.Decimal
}

// NewSimulator creates a simulator. A non-positive liquidityFraction falls
// back to the default 30% depth limit.
func NewSimulator(liquidityFraction decimal.Decimal) *Simulator {
	if !liquidityFraction.IsPositive() {
		liquidityFraction = DefaultLiquidityFraction
	}
	return &Simulator{liquidityFraction: liquidityFraction}
}

// Simulate computes the output amount of swapping amountIn of tokenIn for
// tokenOut against the venue. Infeasible swaps (unknown tokens, empty
// reserves, amounts beyond the depth limit) return an error wrapping
// ErrInfeasible.
func (s *Simulator) Simulate(venue *models.Venue, tokenIn, tokenOut string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	if !venue.HasToken(tokenIn) || !venue.HasToken(tokenOut) || tokenIn == tokenOut {
		return decimal.Zero, fmt.Errorf("%w: venue %s does not trade %s/%s", ErrInfeasible, venue.ID, tokenIn, tokenOut)
	}
	if !amountIn.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive input amount %s", ErrInfeasible, amountIn)
	}

	reserveIn := venue.Reserve(tokenIn)
	reserveOut := venue.Reserve(tokenOut)
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: venue %s has empty reserves", ErrInfeasible, venue.ID)
	}
	if venue.Fee.IsNegative() || venue.Fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%w: venue %s fee %s outside [0,1)", ErrInfeasible, venue.ID, venue.Fee)
	}

	// Depth limit: swapping more than a fraction of the input reserve would
	// realize unacceptable slippage, so the venue is treated as too shallow.
	maxIn := reserveIn.Mul(s.liquidityFraction)
	if amountIn.GreaterThan(maxIn) {
		return decimal.Zero, fmt.Errorf("%w: amount %s exceeds %s of reserve %s on venue %s",
			ErrInfeasible, amountIn, s.liquidityFraction, reserveIn, venue.ID)
	}

	effectiveIn := amountIn.Mul(decimal.NewFromInt(1).Sub(venue.Fee))

	var amountOut decimal.Decimal
	switch venue.Curve {
	case models.CurveWeighted:
		amountOut = weightedOut(venue, tokenIn, tokenOut, reserveIn, reserveOut, effectiveIn)
	case models.CurveStable:
		// Stable venues use the constant-product price as a stand-in until
		// real stable-curve math lands.
		amountOut = constantProductOut(reserveIn, reserveOut, effectiveIn)
	default:
		amountOut = constantProductOut(reserveIn, reserveOut, effectiveIn)
	}

	if !amountOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: zero output on venue %s", ErrInfeasible, venue.ID)
	}
	return amountOut, nil
}

// Utility is the fee-adjusted net value of a swap: output minus the venue gas
// cost. Candidates with utility <= 0 are never selected.
func (s *Simulator) Utility(venue *models.Venue, tokenIn, tokenOut string, amountIn decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	amountOut, err := s.Simulate(venue, tokenIn, tokenOut, amountIn)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return amountOut, amountOut.Sub(venue.GasCost), nil
}

// constantProductOut prices against x*y=k: out = in' * y / (x + in')
func constantProductOut(reserveIn, reserveOut, effectiveIn decimal.Decimal) decimal.Decimal {
	return effectiveIn.Mul(reserveOut).Div(reserveIn.Add(effectiveIn))
}

// weightedOut prices against a weighted pool:
// out = y * (1 - (x/(x+in'))^(wIn/wOut))
// The fractional exponent is evaluated in float64; the inputs here are
// already approximate venue snapshots so the precision loss is acceptable.
func weightedOut(venue *models.Venue, tokenIn, tokenOut string, reserveIn, reserveOut, effectiveIn decimal.Decimal) decimal.Decimal {
	wIn := venue.Weight(tokenIn)
	wOut := venue.Weight(tokenOut)
	if !wOut.IsPositive() {
		return decimal.Zero
	}

	ratio := reserveIn.Div(reserveIn.Add(effectiveIn)).InexactFloat64()
	exp := wIn.Div(wOut).InexactFloat64()
	pow := math.Pow(ratio, exp)
	if math.IsNaN(pow) || math.IsInf(pow, 0) {
		return decimal.Zero
	}
	return reserveOut.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(pow)))
}

// DynamicFee scales a venue's base fee with utilization. Not applied on the
// default path; available for venues that price fees by depth usage.
func DynamicFee(venue *models.Venue, tokenIn string, amountIn decimal.Decimal) decimal.Decimal {
	reserveIn := venue.Reserve(tokenIn)
	if !reserveIn.IsPositive() {
		return venue.Fee
	}
	utilization := amountIn.Div(reserveIn)
	return venue.Fee.Mul(decimal.NewFromInt(1).Add(utilization))
}
