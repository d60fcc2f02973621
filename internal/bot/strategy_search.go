package bot

import (
	"github.com/rs/zerolog/log"

	"github.com/ewagner/gentle-conquest/pkg/conquest"
)

// searchSamples is how many perturbed candidate order sets the hard bot
// adjudicates per turn on top of the tactical baseline.
const searchSamples = 48

// SearchStrategy adjudicates candidate order sets against a stand-pat
// opponent model and keeps the best-scoring one. Candidates are random
// perturbations of the tactical plan. The hard difficulty.
type SearchStrategy struct{}

func (SearchStrategy) Name() string { return "search" }

func (SearchStrategy) GenerateOrders(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) []conquest.Order {
	best := TacticalStrategy{}.GenerateOrders(gs, faction, m)
	bestScore := scoreCandidate(gs, faction, m, best)

	for i := 0; i < searchSamples; i++ {
		cand := perturb(gs, faction, m, best)
		if cand == nil {
			continue
		}
		if score := scoreCandidate(gs, faction, m, cand); score > bestScore {
			best = cand
			bestScore = score
		}
	}

	return best
}

// scoreCandidate plays the candidate against every enemy unit holding,
// adjudicates, and scores the resulting position. An unadjudicable
// candidate scores worst.
func scoreCandidate(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap, orders []conquest.Order) int {
	set := conquest.NewOrderSet()
	for _, o := range orders {
		o.ID = ""
		if set.Add(o) != nil {
			return -1 << 30
		}
	}
	conquest.FillHolds(set, gs)
	set.LinkSupports(gs, m)

	res, err := conquest.Resolve(set, gs, m)
	if err != nil {
		log.Debug().Err(err).Str("faction", string(faction)).Msg("Candidate order set failed adjudication")
		return -1 << 30
	}
	next := conquest.Apply(gs, set, res)
	return scorePosition(next, faction, m)
}

// scorePosition values a board for the faction: strongholds held dominate,
// surviving units matter, and idle distance to open strongholds breaks ties.
func scorePosition(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) int {
	counts := conquest.StrongholdCounts(gs, m)
	score := counts[faction] * 100

	units := gs.UnitsOf(faction)
	score += len(units) * 20

	goals := openStrongholds(gs, faction, m)
	for _, u := range units {
		nearest := -1
		for _, g := range goals {
			if !m.CanOccupy(u.Kind, g) {
				continue
			}
			if d := m.Distance(u.Province, g); d >= 0 && (nearest < 0 || d < nearest) {
				nearest = d
			}
		}
		if nearest > 0 {
			score -= nearest
		}
	}
	return score
}

// perturb rewrites one randomly chosen unit's order to a random legal
// alternative: hold, an adjacent move, or a support of another planned
// order. Returns nil when no rewrite was found.
func perturb(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap, base []conquest.Order) []conquest.Order {
	if len(base) == 0 {
		return nil
	}

	cand := make([]conquest.Order, len(base))
	copy(cand, base)
	i := botIntn(len(cand))
	unit := gs.Unit(cand[i].UnitID)
	if unit == nil {
		return nil
	}

	alts := alternativesFor(gs, faction, m, cand, i, *unit)
	if len(alts) == 0 {
		return nil
	}
	cand[i] = alts[botIntn(len(alts))]
	return cand
}

// alternativesFor enumerates every legal order the unit could issue instead
// of its current one.
func alternativesFor(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap, orders []conquest.Order, i int, u conquest.Unit) []conquest.Order {
	current := orders[i]
	var alts []conquest.Order

	if current.Kind != conquest.OrderHold {
		alts = append(alts, holdOrder(u))
	}
	for _, n := range m.Neighbors(u.Province) {
		if !m.CanOccupy(u.Kind, n) {
			continue
		}
		if current.Kind == conquest.OrderMove && current.Target == n {
			continue
		}
		alts = append(alts, moveOrder(u, n))
	}
	for j := range orders {
		if j == i || orders[j].Kind == conquest.OrderSupport {
			continue
		}
		if !m.Adjacent(u.Province, orders[j].ActionProvince()) {
			continue
		}
		alts = append(alts, supportOrder(u, &orders[j]))
	}
	return alts
}
