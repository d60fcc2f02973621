package conquest

import "fmt"

// SupportStatus is the resolved state of a support order.
type SupportStatus int

const (
	SupportValid   SupportStatus = iota // Counts toward the supported order's strength
	SupportCut                         // Severed by an opposing attack on the supporter
	SupportInvalid                     // Never attached to a real order (see SupportReason)
)

func (s SupportStatus) String() string {
	switch s {
	case SupportValid:
		return "valid"
	case SupportCut:
		return "cut"
	case SupportInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Outcome is the final per-unit result of a turn.
type Outcome int

const (
	OutcomeStood     Outcome = iota // Unit remains in its province
	OutcomeMoved                    // Unit's move succeeded
	OutcomeDislodged                // Unit was forced out of its province
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStood:
		return "stood"
	case OutcomeMoved:
		return "moved"
	case OutcomeDislodged:
		return "dislodged"
	default:
		return "unknown"
	}
}

// Conflict records a contested province for diagnostics: every contender's
// strength, whether the top strength was shared, and the unique strongest
// contender if there was one.
type Conflict struct {
	Province  string
	Strengths map[string]int // unit ID -> strength
	IsTie     bool
	Winner    string // unit ID, empty on a tie
}

// Resolution is the full result of adjudicating one turn.
type Resolution struct {
	Outcomes        map[string]Outcome       // unit ID -> outcome
	SupportStatuses map[string]SupportStatus // support order ID -> status
	Strengths       map[string]int           // order ID -> strength
	Conflicts       map[string]Conflict      // province ID -> conflict record
}

// StateError reports incoherent collaborator data: an order referencing a
// unit or province the game state or map does not know. It is a structural
// failure of the input, never a normal adjudication result.
type StateError struct {
	Reference string
	Message   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("incoherent game data (%s): %s", e.Reference, e.Message)
}

// Resolve adjudicates one turn's order set against the game state and map.
// LinkSupports must have run on the set first.
//
// Resolution is four linear passes with no backtracking: support statuses,
// strengths, per-province conflicts, then per-unit outcomes. Each pass is a
// pure function of the previous one, so the result is unique and the
// computation always terminates. The only error is a StateError for
// malformed input.
func Resolve(set *OrderSet, gs *GameState, m *WorldMap) (*Resolution, error) {
	orders := set.All()
	if err := checkCoherence(orders, gs, m); err != nil {
		return nil, err
	}

	res := &Resolution{
		Outcomes:        make(map[string]Outcome, len(gs.Units)),
		SupportStatuses: make(map[string]SupportStatus),
		Strengths:       make(map[string]int, len(orders)),
		Conflicts:       make(map[string]Conflict),
	}

	resolveSupportStatuses(orders, res)
	resolveStrengths(orders, res)
	advances := resolveConflicts(orders, set, gs, res)
	resolveOutcomes(set, gs, advances, res)

	return res, nil
}

// checkCoherence verifies every order references known units and provinces.
func checkCoherence(orders []*Order, gs *GameState, m *WorldMap) error {
	for _, o := range orders {
		unit := gs.Unit(o.UnitID)
		if unit == nil {
			return &StateError{Reference: o.UnitID, Message: "order issued to unknown unit"}
		}
		if unit.Province != o.Location {
			return &StateError{Reference: o.UnitID, Message: fmt.Sprintf("order placed at %s but unit occupies %s", o.Location, unit.Province)}
		}
		if !m.HasProvince(o.Location) {
			return &StateError{Reference: o.Location, Message: "unknown province"}
		}
		if o.Kind == OrderMove && !m.HasProvince(o.Target) {
			return &StateError{Reference: o.Target, Message: "unknown move destination"}
		}
		if o.Kind == OrderSupport && !m.HasProvince(o.SupportLoc) {
			return &StateError{Reference: o.SupportLoc, Message: "unknown supported province"}
		}
	}
	return nil
}

// resolveSupportStatuses computes valid/cut/invalid for every support.
// A linked support is cut when an opposing-faction move targets the
// supporter's own province from an origin other than the action province
// it is defending. The two carve-outs keep a support from being severed by
// the very unit it is helping. Cut depends only on which move orders exist,
// not on whether they succeed, so one pass suffices.
func resolveSupportStatuses(orders []*Order, res *Resolution) {
	for _, o := range orders {
		if o.Kind != OrderSupport {
			continue
		}
		if o.Reason != ReasonNone {
			res.SupportStatuses[o.ID] = SupportInvalid
			continue
		}

		status := SupportValid
		for _, mv := range orders {
			if mv.Kind != OrderMove || mv.Target != o.Location {
				continue
			}
			if mv.Location == o.ActionProvince() {
				continue
			}
			if mv.Faction == o.Faction {
				continue
			}
			status = SupportCut
			break
		}
		res.SupportStatuses[o.ID] = status
	}
}

// resolveStrengths computes each order's strength: 1 plus its valid supports.
func resolveStrengths(orders []*Order, res *Resolution) {
	for _, o := range orders {
		res.Strengths[o.ID] = 1
	}
	for _, o := range orders {
		if o.Kind != OrderSupport || o.SupportedOrderID == "" {
			continue
		}
		if res.SupportStatuses[o.ID] == SupportValid {
			res.Strengths[o.SupportedOrderID]++
		}
	}
}

// resolveConflicts decides every contested province and returns the
// successful moves as a destination -> unit ID map.
//
// A province is contested when at least one move targets it. Contenders are
// those moves plus the occupant, whose strength is its own order's strength
// or 1 if it issued none. A move succeeds only when it alone holds the
// maximum strength; any shared maximum is a bounce. An occupant moving
// elsewhere still contends here with its full strength.
func resolveConflicts(orders []*Order, set *OrderSet, gs *GameState, res *Resolution) map[string]string {
	movesTo := make(map[string][]*Order)
	for _, o := range orders {
		if o.Kind == OrderMove {
			movesTo[o.Target] = append(movesTo[o.Target], o)
		}
	}

	advances := make(map[string]string) // destination province -> unit ID
	for provID, movers := range movesTo {
		strengths := make(map[string]int, len(movers)+1)
		for _, mv := range movers {
			strengths[mv.UnitID] = res.Strengths[mv.ID]
		}

		occupant := gs.UnitAt(provID)
		if occupant != nil {
			if _, attacking := strengths[occupant.ID]; !attacking {
				holdStrength := 1
				if o := set.ByUnit(occupant.ID); o != nil {
					holdStrength = res.Strengths[o.ID]
				}
				strengths[occupant.ID] = holdStrength
			}
		}

		max := 0
		for _, s := range strengths {
			if s > max {
				max = s
			}
		}
		var winners []string
		for unitID, s := range strengths {
			if s == max {
				winners = append(winners, unitID)
			}
		}

		isTie := len(winners) > 1
		winner := ""
		if !isTie {
			winner = winners[0]
		}

		// A unique strongest mover advances; a unique strongest occupant,
		// or any tie, means every move bounces.
		if winner != "" {
			for _, mv := range movers {
				if mv.UnitID == winner {
					advances[provID] = winner
					break
				}
			}
		}

		if len(strengths) >= 2 {
			res.Conflicts[provID] = Conflict{
				Province:  provID,
				Strengths: strengths,
				IsTie:     isTie,
				Winner:    winner,
			}
		}
	}
	return advances
}

// resolveOutcomes derives the final outcome for every unit on the board.
// A unit whose move advanced is final; any other unit is dislodged exactly
// when some other unit's move into its province succeeded.
func resolveOutcomes(set *OrderSet, gs *GameState, advances map[string]string, res *Resolution) {
	for i := range gs.Units {
		u := &gs.Units[i]

		if o := set.ByUnit(u.ID); o != nil && o.Kind == OrderMove && advances[o.Target] == u.ID {
			res.Outcomes[u.ID] = OutcomeMoved
			continue
		}

		if intruder, ok := advances[u.Province]; ok && intruder != u.ID {
			res.Outcomes[u.ID] = OutcomeDislodged
			continue
		}

		res.Outcomes[u.ID] = OutcomeStood
	}
}
