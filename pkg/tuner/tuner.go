// Package tuner adjusts solver cost parameters from realized batch outcomes.
// It is a plain exponential-moving-average feedback loop, nothing more: each
// batch's observed per-chain costs pull the estimates used by the next batch.
package tuner

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/models"
)

// DefaultAlpha is the EMA smoothing factor: how much one batch's observation
// moves the estimate
var DefaultAlpha = decimal.NewFromFloat(0.2)

// AutoTuner keeps EMA estimates of per-chain venue gas cost. Estimates are
// clamped to stay within a band around the configured baseline so a few
// outlier batches cannot run the parameters away.
type AutoTuner struct {
	mu       sync.RWMutex
	alpha    decimal.Decimal
	baseline map[int]decimal.Decimal
	gasCost  map[int]decimal.Decimal
}

// New creates a tuner seeded with per-chain baseline gas costs
func New(alpha decimal.Decimal, baseline map[int]decimal.Decimal) *AutoTuner {
	if !alpha.IsPositive() || alpha.GreaterThan(decimal.NewFromInt(1)) {
		alpha = DefaultAlpha
	}
	seeded := make(map[int]decimal.Decimal, len(baseline))
	base := make(map[int]decimal.Decimal, len(baseline))
	for chainID, cost := range baseline {
		seeded[chainID] = cost
		base[chainID] = cost
	}
	return &AutoTuner{
		alpha:    alpha,
		baseline: base,
		gasCost:  seeded,
	}
}

// GasCost returns the current estimate for a chain, zero when the chain is
// unknown
func (t *AutoTuner) GasCost(chainID int) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gasCost[chainID]
}

// ObserveBatch folds the realized gas costs of one execution plan into the
// estimates. Only pool executions carry gas; CoW and queued outcomes are
// ignored. Gas is attributed to the chain each hop settles on, and bridge
// fees are a separate cost category that never folds into a gas estimate.
func (t *AutoTuner) ObserveBatch(plan *models.ExecutionPlan) {
	observed := make(map[int][]decimal.Decimal)
	for i := range plan.Executions {
		exec := &plan.Executions[i]
		if exec.MatchType != models.MatchPool && exec.MatchType != models.MatchCrossChainPool {
			continue
		}
		for chainID, gas := range exec.GasByChain {
			observed[chainID] = append(observed[chainID], gas)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for chainID, costs := range observed {
		sum := decimal.Zero
		for _, c := range costs {
			sum = sum.Add(c)
		}
		mean := sum.Div(decimal.NewFromInt(int64(len(costs))))
		t.gasCost[chainID] = t.clamp(chainID, t.ema(t.gasCost[chainID], mean))
	}
}

// ema blends one observation into the running estimate
func (t *AutoTuner) ema(current, observation decimal.Decimal) decimal.Decimal {
	if current.IsZero() {
		return observation
	}
	one := decimal.NewFromInt(1)
	return observation.Mul(t.alpha).Add(current.Mul(one.Sub(t.alpha)))
}

// clamp keeps the estimate within [baseline/4, baseline*4]; without a
// baseline the estimate floats freely
func (t *AutoTuner) clamp(chainID int, estimate decimal.Decimal) decimal.Decimal {
	base, ok := t.baseline[chainID]
	if !ok || !base.IsPositive() {
		return estimate
	}
	four := decimal.NewFromInt(4)
	lo := base.Div(four)
	hi := base.Mul(four)
	if estimate.LessThan(lo) {
		return lo
	}
	if estimate.GreaterThan(hi) {
		return hi
	}
	return estimate
}
