package solver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/cow"
	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/metrics"
	"github.com/cowmatch-hq/solver/pkg/models"
	"github.com/cowmatch-hq/solver/pkg/router"
	"github.com/cowmatch-hq/solver/pkg/tuner"
	"github.com/cowmatch-hq/solver/pkg/venues"
)

// Queue reasons reported on executions that fall through to the next batch
const (
	QueueReasonNoRoute      = "no_viable_route"
	QueueReasonBatchTimeout = "batch_timeout"
	QueueReasonError        = "processing_error"
	QueueReasonCapacity     = "venue_capacity"
)

// Optimizer turns one batch of intents plus a venue snapshot into an
// execution plan. The pipeline is fixed: direct matches first, then pool
// routing for whatever is left, then queueing the remainder. Every input
// intent produces exactly one execution.
type Optimizer struct {
	router            *router.Router
	bridgeFees        *venues.BridgeFeeEstimator
	tuner             *tuner.AutoTuner
	minImprovement    decimal.Decimal
	liquidityFraction decimal.Decimal
	globalAssignment  bool
	logger            logger.Logger
}

// NewOptimizer creates an optimizer
func NewOptimizer(
	r *router.Router,
	bridgeFees *venues.BridgeFeeEstimator,
	costTuner *tuner.AutoTuner,
	minImprovement decimal.Decimal,
	liquidityFraction decimal.Decimal,
	globalAssignment bool,
	log logger.Logger,
) *Optimizer {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Optimizer{
		router:            r,
		bridgeFees:        bridgeFees,
		tuner:             costTuner,
		minImprovement:    minImprovement,
		liquidityFraction: liquidityFraction,
		globalAssignment:  globalAssignment,
		logger:            log,
	}
}

// Optimize runs the full pipeline over one batch. The context deadline bounds
// the pool-routing phase; intents not reached in time are queued rather than
// dropped.
func (o *Optimizer) Optimize(ctx context.Context, intents []models.Intent, venueSet []models.Venue) *models.ExecutionPlan {
	plan := &models.ExecutionPlan{CreatedAt: time.Now()}
	if len(intents) == 0 {
		return plan
	}

	// Phase 1: direct coincidence-of-wants matches.
	matches := cow.FindMatches(intents)
	for i := range matches {
		plan.Executions = append(plan.Executions,
			cowExecution(matches[i].A, matches[i].B),
			cowExecution(matches[i].B, matches[i].A),
		)
		metrics.CoWMatches.Inc()
	}
	matched := cow.MatchedIDs(matches)

	remaining := make([]models.Intent, 0, len(intents))
	for i := range intents {
		if !matched[intents[i].ID] {
			remaining = append(remaining, intents[i])
		}
	}

	// Phase 2: pool routing for the unmatched remainder.
	if o.globalAssignment {
		plan.Executions = append(plan.Executions, o.routeGlobally(ctx, remaining, venueSet)...)
	} else {
		plan.Executions = append(plan.Executions, o.routeIndependently(ctx, remaining, venueSet)...)
	}

	o.logger.Info("Batch plan: %d cow, %d pool, %d cross-chain, %d queued",
		plan.Count(models.MatchCoW), plan.Count(models.MatchPool),
		plan.Count(models.MatchCrossChainPool), plan.Count(models.MatchQueued))
	return plan
}

// cowExecution builds the execution for one side of a direct match. The
// expected output is the counterparty's full sell amount; a direct match
// touches no venue so it carries no cost.
func cowExecution(intent, counterparty models.Intent) models.Execution {
	intent.Status = models.StatusMatched
	return models.Execution{
		Intent:         intent,
		MatchType:      models.MatchCoW,
		CounterpartyID: counterparty.ID,
		ExpectedOutput: counterparty.SellAmount,
		TotalCost:      decimal.Zero,
	}
}

// routeIndependently finds each intent's best route in isolation. Earlier
// intents do not reserve venue depth against later ones; the settlement layer
// reconciles any overlap.
func (o *Optimizer) routeIndependently(ctx context.Context, intents []models.Intent, venueSet []models.Venue) []models.Execution {
	executions := make([]models.Execution, 0, len(intents))
	for i := range intents {
		if ctx.Err() != nil {
			o.logger.Notice("Batch deadline hit, queueing %d remaining intents", len(intents)-i)
			for j := i; j < len(intents); j++ {
				executions = append(executions, queuedExecution(intents[j], QueueReasonBatchTimeout))
			}
			break
		}
		executions = append(executions, o.routeOne(&intents[i], venueSet))
	}
	return executions
}

// routeOne resolves a single intent against the snapshot. A panic while
// evaluating one intent queues that intent and never poisons the batch.
func (o *Optimizer) routeOne(intent *models.Intent, venueSet []models.Venue) (exec models.Execution) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Recovered while routing intent %s: %v", intent.ID, r)
			metrics.IntentErrors.WithLabelValues("panic").Inc()
			exec = queuedExecution(*intent, QueueReasonError)
		}
	}()

	local, cross := partitionVenues(venueSet, intent.ChainID)

	best, bestOK := o.bestCandidate(intent, local, false)
	if crossBest, ok := o.bestCandidate(intent, cross, true); ok {
		if !bestOK || o.prefersCrossChain(best, crossBest) {
			best, bestOK = crossBest, true
		}
	}

	if !bestOK {
		metrics.QueuedIntents.Inc()
		return queuedExecution(*intent, QueueReasonNoRoute)
	}
	return o.finalize(intent, best)
}

// candidate is one evaluated route with its total cost accounted
type candidate struct {
	route       models.Route
	totalCost   decimal.Decimal
	gasByChain  map[int]decimal.Decimal
	crossChain  bool
	targetChain int
}

// value is the net amount the user ends up with after costs
func (c *candidate) value() decimal.Decimal {
	return c.route.AmountOut.Sub(c.totalCost)
}

// bestCandidate evaluates every path through the given venues, drops the
// infeasible ones (non-positive net value, minimum buy amount not met), and
// keeps the highest-utility survivor. Filtering before selection matters:
// additive utility favors longer paths, and a multi-hop route that misses the
// intent's minimum must not shadow a shorter route that satisfies it.
func (o *Optimizer) bestCandidate(intent *models.Intent, venueSet []models.Venue, crossChain bool) (candidate, bool) {
	var best candidate
	found := false

	for _, path := range o.router.FindPaths(intent, venueSet) {
		route, err := o.router.Evaluate(intent, path)
		if err != nil {
			continue
		}
		c := o.priced(intent, route, crossChain)
		if !c.value().IsPositive() || route.AmountOut.LessThan(intent.MinBuyAmount) {
			continue
		}
		if !found || c.route.Utility.GreaterThan(best.route.Utility) {
			best = c
			found = true
		}
	}
	return best, found
}

// priced attaches gas and bridging costs to an evaluated route. Gas is
// tracked per hop chain so realized costs can feed back into the right
// chain's estimate; the bridge fee is a separate category on top.
func (o *Optimizer) priced(intent *models.Intent, route models.Route, crossChain bool) candidate {
	cost := decimal.Zero
	gasByChain := make(map[int]decimal.Decimal, len(route.Hops))
	targetChain := intent.ChainID
	for _, hop := range route.Hops {
		gas := o.tuner.GasCost(hop.ChainID)
		cost = cost.Add(gas)
		gasByChain[hop.ChainID] = gasByChain[hop.ChainID].Add(gas)
		targetChain = hop.ChainID
	}
	if crossChain {
		cost = cost.Add(o.bridgeFees.Estimate(intent.ChainID, targetChain))
	}
	return candidate{
		route:       route,
		totalCost:   cost,
		gasByChain:  gasByChain,
		crossChain:  crossChain,
		targetChain: targetChain,
	}
}

// prefersCrossChain applies the cross-chain margin rule: leaving the intent's
// chain must improve the net value by at least the configured fraction, never
// merely tie it
func (o *Optimizer) prefersCrossChain(local, cross candidate) bool {
	threshold := local.value().Mul(decimal.NewFromInt(1).Add(o.minImprovement))
	return cross.value().GreaterThan(threshold)
}

// finalize turns the winning candidate into an execution and bumps counters
func (o *Optimizer) finalize(intent *models.Intent, c candidate) models.Execution {
	resolved := *intent
	resolved.Status = models.StatusMatched
	exec := models.Execution{
		Intent:         resolved,
		MatchType:      models.MatchPool,
		VenueIDs:       c.route.VenueIDs(),
		ExpectedOutput: c.route.AmountOut,
		TotalCost:      c.totalCost,
		GasByChain:     c.gasByChain,
	}
	if c.crossChain {
		exec.MatchType = models.MatchCrossChainPool
		exec.RequiresCrossChain = true
		exec.TargetChain = c.targetChain
		metrics.CrossChainRoutes.WithLabelValues(strconv.Itoa(c.targetChain)).Inc()
	} else {
		metrics.PoolRoutes.WithLabelValues(strconv.Itoa(intent.ChainID)).Inc()
	}
	return exec
}

func queuedExecution(intent models.Intent, reason string) models.Execution {
	return models.Execution{
		Intent:      intent,
		MatchType:   models.MatchQueued,
		QueueReason: reason,
	}
}

// partitionVenues splits the snapshot into venues on the intent's own chain
// and venues elsewhere
func partitionVenues(venueSet []models.Venue, chainID int) (local, cross []models.Venue) {
	for i := range venueSet {
		if venueSet[i].ChainID == chainID {
			local = append(local, venueSet[i])
		} else {
			cross = append(cross, venueSet[i])
		}
	}
	return local, cross
}

// routeGlobally resolves the remainder as one assignment problem: every
// intent contributes its candidate routes as variables, venue depth is a
// shared budget, and the solve picks a conflict-free subset. Intents whose
// candidates all lose out on capacity are queued.
func (o *Optimizer) routeGlobally(ctx context.Context, intents []models.Intent, venueSet []models.Venue) []models.Execution {
	problem := NewProblem(venueSet, o.liquidityFraction)
	candidates := make(map[VarKey]candidate)

	executions := make([]models.Execution, 0, len(intents))
	unresolved := make([]models.Intent, 0, len(intents))

	for i := range intents {
		if ctx.Err() != nil {
			// The solve never ran, so intents already scanned have no
			// execution yet either; everything still open goes back to the
			// queue, not just the unscanned tail.
			o.logger.Notice("Batch deadline hit, queueing %d remaining intents", len(unresolved)+len(intents)-i)
			for j := range unresolved {
				executions = append(executions, queuedExecution(unresolved[j], QueueReasonBatchTimeout))
			}
			for j := i; j < len(intents); j++ {
				executions = append(executions, queuedExecution(intents[j], QueueReasonBatchTimeout))
			}
			return executions
		}
		intent := &intents[i]
		if err := o.collectVariables(problem, candidates, intent, venueSet); err != nil {
			o.logger.Error("Recovered while routing intent %s: %v", intent.ID, err)
			metrics.IntentErrors.WithLabelValues("panic").Inc()
			executions = append(executions, queuedExecution(*intent, QueueReasonError))
			continue
		}
		unresolved = append(unresolved, *intent)
	}

	selected := problem.Solve()
	for i := range unresolved {
		intent := &unresolved[i]
		v, ok := selected[intent.ID]
		if !ok {
			metrics.QueuedIntents.Inc()
			reason := QueueReasonNoRoute
			if hasCandidate(candidates, intent.ID) {
				reason = QueueReasonCapacity
			}
			executions = append(executions, queuedExecution(*intent, reason))
			continue
		}
		executions = append(executions, o.finalize(intent, candidates[v.Key]))
	}
	return executions
}

// collectVariables gathers one intent's candidate routes into the problem. A
// panic while evaluating the intent is converted to an error so the caller
// can queue that intent alone instead of losing the batch.
func (o *Optimizer) collectVariables(problem *Problem, candidates map[VarKey]candidate, intent *models.Intent, venueSet []models.Venue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic evaluating intent %s: %v", intent.ID, r)
		}
	}()

	local, cross := partitionVenues(venueSet, intent.ChainID)
	o.addVariables(problem, candidates, intent, local, false)
	o.addVariables(problem, candidates, intent, cross, true)
	return nil
}

// addVariables evaluates every path for the intent through the given venues
// and registers the viable ones. Cross-chain variables are only admitted when
// they clear the margin over the intent's best local candidate, keeping the
// preference rule intact under global assignment.
func (o *Optimizer) addVariables(problem *Problem, candidates map[VarKey]candidate, intent *models.Intent, venueSet []models.Venue, crossChain bool) {
	var bestLocal candidate
	haveLocal := false
	if crossChain {
		if c, ok := o.bestLocalCandidate(candidates, intent.ID); ok {
			bestLocal, haveLocal = c, true
		}
	}

	for pathIdx, path := range o.router.FindPaths(intent, venueSet) {
		route, err := o.router.Evaluate(intent, path)
		if err != nil {
			continue
		}
		c := o.priced(intent, route, crossChain)
		if !c.value().IsPositive() || route.AmountOut.LessThan(intent.MinBuyAmount) {
			continue
		}
		if crossChain && haveLocal && !o.prefersCrossChain(bestLocal, c) {
			continue
		}

		// Cross-chain path indexes are offset so they never collide with
		// local ones for the same intent.
		idx := pathIdx
		if crossChain {
			idx += 1 << 20
		}
		key := VarKey{IntentID: intent.ID, PathIndex: idx}
		candidates[key] = c
		problem.AddVariable(intent.ID, idx, route, c.value())
	}
}

// bestLocalCandidate scans already-registered variables for the intent's
// highest-value local candidate
func (o *Optimizer) bestLocalCandidate(candidates map[VarKey]candidate, intentID string) (candidate, bool) {
	var best candidate
	found := false
	for key, c := range candidates {
		if key.IntentID != intentID || c.crossChain {
			continue
		}
		if !found || c.value().GreaterThan(best.value()) {
			best = c
			found = true
		}
	}
	return best, found
}

func hasCandidate(candidates map[VarKey]candidate, intentID string) bool {
	for key := range candidates {
		if key.IntentID == intentID {
			return true
		}
	}
	return false
}
