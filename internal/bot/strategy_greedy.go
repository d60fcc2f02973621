package bot

import (
	"sort"

	"github.com/ewagner/gentle-conquest/pkg/conquest"
)

// GreedyStrategy marches each unit toward the nearest stronghold the faction
// does not already hold. Units standing on a stronghold with nothing better
// to do stay put to keep it counted. The default (easy) difficulty.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() string { return "greedy" }

func (GreedyStrategy) GenerateOrders(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) []conquest.Order {
	planner := newPlanner(gs, faction, m)
	var orders []conquest.Order
	for _, u := range planner.units {
		orders = append(orders, planner.planUnit(u))
	}
	return orders
}

// planner holds the shared per-turn view a strategy walks unit by unit.
// Claimed destinations prevent two friendly units from bouncing each other.
type planner struct {
	gs      *conquest.GameState
	faction conquest.Faction
	m       *conquest.WorldMap
	units   []conquest.Unit
	goals   []string
	claimed map[string]bool
}

func newPlanner(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) *planner {
	p := &planner{
		gs:      gs,
		faction: faction,
		m:       m,
		units:   gs.UnitsOf(faction),
		claimed: make(map[string]bool),
	}
	p.goals = openStrongholds(gs, faction, m)
	return p
}

// openStrongholds lists strongholds not currently held by the faction,
// sorted for deterministic iteration.
func openStrongholds(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) []string {
	var goals []string
	for id, prov := range m.Provinces {
		if !prov.Stronghold {
			continue
		}
		if u := gs.UnitAt(id); u != nil && u.Faction == faction {
			continue
		}
		goals = append(goals, id)
	}
	sort.Strings(goals)
	return goals
}

// planUnit picks one order for the unit: advance toward the nearest open
// stronghold when a step exists, otherwise hold.
func (p *planner) planUnit(u conquest.Unit) conquest.Order {
	if step := p.bestStep(u); step != "" {
		p.claimed[step] = true
		return moveOrder(u, step)
	}
	p.claimed[u.Province] = true
	return holdOrder(u)
}

// bestStep returns the adjacent province that brings the unit closest to an
// open stronghold, or "" when holding is at least as good. An adjacent open
// stronghold is always taken directly.
func (p *planner) bestStep(u conquest.Unit) string {
	goal := p.nearestGoal(u)
	if goal == "" {
		return ""
	}

	best := ""
	bestDist := p.m.Distance(u.Province, goal)
	for _, n := range p.m.Neighbors(u.Province) {
		if !p.stepLegal(u, n) {
			continue
		}
		if n == goal {
			return n
		}
		if d := p.m.Distance(n, goal); d >= 0 && d < bestDist {
			best = n
			bestDist = d
		}
	}
	return best
}

// stepLegal reports whether the unit may move to the province without
// colliding with this faction's own plans or units.
func (p *planner) stepLegal(u conquest.Unit, dest string) bool {
	if p.claimed[dest] {
		return false
	}
	if !p.m.CanOccupy(u.Kind, dest) {
		return false
	}
	if occ := p.gs.UnitAt(dest); occ != nil && occ.Faction == p.faction {
		return false
	}
	return true
}

// nearestGoal returns the open stronghold closest to the unit, breaking
// distance ties by province ID. Returns "" when no goal is reachable.
func (p *planner) nearestGoal(u conquest.Unit) string {
	best := ""
	bestDist := -1
	for _, g := range p.goals {
		if !p.m.CanOccupy(u.Kind, g) {
			continue
		}
		d := p.m.Distance(u.Province, g)
		if d < 0 {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best = g
			bestDist = d
		}
	}
	return best
}
