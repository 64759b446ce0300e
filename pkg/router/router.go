// Package router explores bounded-depth swap paths through the venue graph,
// where nodes are tokens and edges are venues, and evaluates each path by
// simulating the full sell amount hop by hop.
package router

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/amm"
	"github.com/cowmatch-hq/solver/pkg/models"
)

// DefaultMaxHops bounds path depth when no explicit limit is configured
const DefaultMaxHops = 3

// ErrNoRoute is returned when no feasible path connects the intent's tokens
var ErrNoRoute = errors.New("no feasible route")

// Router finds and evaluates multi-hop routes for intents
type Router struct {
	sim     *amm.Simulator
	maxHops int
}

// New creates a router that evaluates hops with the given simulator
func New(sim *amm.Simulator, maxHops int) *Router {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &Router{sim: sim, maxHops: maxHops}
}

// MaxHops returns the configured path depth limit
func (r *Router) MaxHops() int {
	return r.maxHops
}

// searchState is one frontier entry in the breadth-first search
type searchState struct {
	token string
	path  []int // venue indexes in hop order
}

// FindPaths returns every venue path from the intent's sell token to its buy
// token within the hop limit. A venue is never reused within one path, which
// rules out degenerate loops. Paths are returned in BFS discovery order, so
// shorter paths come first and the order is deterministic for a given venue
// slice.
func (r *Router) FindPaths(intent *models.Intent, venues []models.Venue) [][]models.Venue {
	var paths [][]models.Venue

	queue := []searchState{{token: intent.SellToken}}
	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]

		if state.token == intent.BuyToken && len(state.path) > 0 {
			path := make([]models.Venue, len(state.path))
			for i, idx := range state.path {
				path[i] = venues[idx]
			}
			paths = append(paths, path)
			continue
		}
		if len(state.path) >= r.maxHops {
			continue
		}

		for idx := range venues {
			venue := &venues[idx]
			if !venue.HasToken(state.token) {
				continue
			}
			if containsIndex(state.path, idx) {
				continue
			}
			next, ok := venue.OtherToken(state.token)
			if !ok {
				continue
			}
			nextPath := make([]int, len(state.path)+1)
			copy(nextPath, state.path)
			nextPath[len(state.path)] = idx
			queue = append(queue, searchState{token: next, path: nextPath})
		}
	}

	return paths
}

// Evaluate simulates the intent's full sell amount through the path, carrying
// each hop's output forward as the next hop's input. Any infeasible or
// non-positive hop discards the whole path; there is no partial credit.
//
// The route utility is the sum of per-hop output amounts. This additive
// accounting is the protocol's scoring convention; do not replace it with a
// multiplicative end-to-end value.
func (r *Router) Evaluate(intent *models.Intent, path []models.Venue) (models.Route, error) {
	if len(path) == 0 {
		return models.Route{}, fmt.Errorf("%w: empty path", ErrNoRoute)
	}

	amount := intent.SellAmount
	token := intent.SellToken
	utility := decimal.Zero
	hops := make([]models.Hop, 0, len(path))

	for i := range path {
		venue := &path[i]
		next, ok := venue.OtherToken(token)
		if !ok {
			return models.Route{}, fmt.Errorf("%w: venue %s does not hold %s", ErrNoRoute, venue.ID, token)
		}

		out, err := r.sim.Simulate(venue, token, next, amount)
		if err != nil {
			return models.Route{}, fmt.Errorf("%w: hop %d on venue %s: %v", ErrNoRoute, i, venue.ID, err)
		}

		hops = append(hops, models.Hop{
			VenueID:   venue.ID,
			ChainID:   venue.ChainID,
			TokenIn:   token,
			TokenOut:  next,
			AmountIn:  amount,
			AmountOut: out,
		})
		utility = utility.Add(out)
		amount = out
		token = next
	}

	if token != intent.BuyToken {
		return models.Route{}, fmt.Errorf("%w: path ends at %s, want %s", ErrNoRoute, token, intent.BuyToken)
	}

	return models.Route{Hops: hops, AmountOut: amount, Utility: utility}, nil
}

// BestRoute finds and evaluates all paths for the intent and returns the one
// with the highest utility, or ErrNoRoute when nothing is feasible
func (r *Router) BestRoute(intent *models.Intent, venues []models.Venue) (models.Route, error) {
	var best models.Route
	found := false

	for _, path := range r.FindPaths(intent, venues) {
		route, err := r.Evaluate(intent, path)
		if err != nil {
			continue
		}
		if !found || route.Utility.GreaterThan(best.Utility) {
			best = route
			found = true
		}
	}

	if !found {
		return models.Route{}, ErrNoRoute
	}
	return best, nil
}

func containsIndex(path []int, idx int) bool {
	for _, p := range path {
		if p == idx {
			return true
		}
	}
	return false
}
