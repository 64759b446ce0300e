package solver

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/models"
)

// VarKey identifies one binary assignment variable: intent takes path
type VarKey struct {
	IntentID  string
	PathIndex int
}

// Variable is a candidate assignment with its evaluated route and score
type Variable struct {
	Key     VarKey
	Route   models.Route
	Utility decimal.Decimal
}

// venueSlot tracks how much input-side depth of one venue is still available
// across the batch. Each hop through the venue consumes its input amount from
// the slot's budget.
type venueSlot struct {
	budget map[string]decimal.Decimal // token -> remaining input capacity
}

// Problem collects assignment variables and the venue capacity they compete
// for. Constraints are typed at construction instead of assembled as opaque
// coefficient rows: each intent gets at most one variable selected, and the
// hops of selected variables must fit the per-venue input budgets.
type Problem struct {
	variables []Variable
	slots     map[string]*venueSlot
}

// NewProblem creates an assignment problem over the given venue snapshot.
// Venue budgets are the same depth limit the simulator enforces per swap, so
// a single selected route always fits its own venues.
func NewProblem(venues []models.Venue, liquidityFraction decimal.Decimal) *Problem {
	slots := make(map[string]*venueSlot, len(venues))
	for i := range venues {
		venue := &venues[i]
		budget := make(map[string]decimal.Decimal, len(venue.Reserves))
		for token, reserve := range venue.Reserves {
			budget[token] = reserve.Mul(liquidityFraction)
		}
		slots[venue.ID] = &venueSlot{budget: budget}
	}
	return &Problem{slots: slots}
}

// AddVariable registers one candidate route for an intent. Path indexes only
// need to be unique per intent.
func (p *Problem) AddVariable(intentID string, pathIndex int, route models.Route, utility decimal.Decimal) {
	p.variables = append(p.variables, Variable{
		Key:     VarKey{IntentID: intentID, PathIndex: pathIndex},
		Route:   route,
		Utility: utility,
	})
}

// Size returns the number of registered variables
func (p *Problem) Size() int {
	return len(p.variables)
}

// Solve picks a conflict-free assignment greedily by descending utility.
// Ties break on the variable key so the result is deterministic. The greedy
// pass respects both constraint families exactly; it just does not search for
// the globally optimal subset, which is acceptable at batch sizes where the
// utility spread between candidates dominates.
func (p *Problem) Solve() map[string]Variable {
	ordered := make([]Variable, len(p.variables))
	copy(ordered, p.variables)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Utility.Equal(ordered[j].Utility) {
			return ordered[i].Utility.GreaterThan(ordered[j].Utility)
		}
		if ordered[i].Key.IntentID != ordered[j].Key.IntentID {
			return ordered[i].Key.IntentID < ordered[j].Key.IntentID
		}
		return ordered[i].Key.PathIndex < ordered[j].Key.PathIndex
	})

	selected := make(map[string]Variable)
	for _, v := range ordered {
		if _, taken := selected[v.Key.IntentID]; taken {
			continue // at most one path per intent
		}
		if !v.Utility.IsPositive() {
			continue
		}
		if !p.fits(&v.Route) {
			continue
		}
		p.consume(&v.Route)
		selected[v.Key.IntentID] = v
	}
	return selected
}

// fits reports whether every hop of the route still has venue budget
func (p *Problem) fits(route *models.Route) bool {
	for _, hop := range route.Hops {
		slot, ok := p.slots[hop.VenueID]
		if !ok {
			return false
		}
		remaining, ok := slot.budget[hop.TokenIn]
		if !ok || hop.AmountIn.GreaterThan(remaining) {
			return false
		}
	}
	return true
}

// consume debits each hop's input amount from its venue budget
func (p *Problem) consume(route *models.Route) {
	for _, hop := range route.Hops {
		slot := p.slots[hop.VenueID]
		slot.budget[hop.TokenIn] = slot.budget[hop.TokenIn].Sub(hop.AmountIn)
	}
}
