package conquest

// Season is the half of the game year a turn belongs to.
type Season string

const (
	Spring Season = "spring"
	Fall   Season = "fall"
)

// GameState is the full board position at the start of a turn.
type GameState struct {
	Year   int    `json:"year"`
	Season Season `json:"season"`
	Units  []Unit `json:"units"`
}

// NewInitialState places each faction's starting pair of units: a land unit
// on its first home stronghold and a sea unit on its coastal second.
func NewInitialState() *GameState {
	return &GameState{
		Year:   1,
		Season: Spring,
		Units: []Unit{
			{ID: "aldren-1", Faction: Aldren, Kind: LandUnit, Province: "nor"},
			{ID: "aldren-2", Faction: Aldren, Kind: SeaUnit, Province: "wes"},
			{ID: "beryn-1", Faction: Beryn, Kind: LandUnit, Province: "tor"},
			{ID: "beryn-2", Faction: Beryn, Kind: SeaUnit, Province: "ost"},
			{ID: "corvath-1", Faction: Corvath, Kind: LandUnit, Province: "sud"},
			{ID: "corvath-2", Faction: Corvath, Kind: SeaUnit, Province: "mor"},
			{ID: "dazhan-1", Faction: Dazhan, Kind: LandUnit, Province: "qar"},
			{ID: "dazhan-2", Faction: Dazhan, Kind: SeaUnit, Province: "zan"},
		},
	}
}

// Unit returns the unit with the given ID, or nil.
func (gs *GameState) Unit(id string) *Unit {
	for i := range gs.Units {
		if gs.Units[i].ID == id {
			return &gs.Units[i]
		}
	}
	return nil
}

// UnitAt returns the unit occupying the given province, or nil.
func (gs *GameState) UnitAt(province string) *Unit {
	for i := range gs.Units {
		if gs.Units[i].Province == province {
			return &gs.Units[i]
		}
	}
	return nil
}

// UnitsOf returns the faction's surviving units in board order.
func (gs *GameState) UnitsOf(f Faction) []Unit {
	var units []Unit
	for _, u := range gs.Units {
		if u.Faction == f {
			units = append(units, u)
		}
	}
	return units
}

// FactionIsAlive reports whether the faction still has units on the board.
func (gs *GameState) FactionIsAlive(f Faction) bool {
	for _, u := range gs.Units {
		if u.Faction == f {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	units := make([]Unit, len(gs.Units))
	copy(units, gs.Units)
	return &GameState{Year: gs.Year, Season: gs.Season, Units: units}
}

// Apply produces the successor state: moved units relocate, dislodged units
// leave the board, everything else stays put. The input state is not
// modified.
func Apply(gs *GameState, set *OrderSet, res *Resolution) *GameState {
	next := &GameState{Year: gs.Year, Season: gs.Season}
	for _, u := range gs.Units {
		switch res.Outcomes[u.ID] {
		case OutcomeDislodged:
			continue
		case OutcomeMoved:
			u.Province = set.ByUnit(u.ID).Target
		}
		next.Units = append(next.Units, u)
	}
	return next
}

// AdvanceState rolls the calendar forward one turn in place.
func AdvanceState(gs *GameState) {
	if gs.Season == Spring {
		gs.Season = Fall
		return
	}
	gs.Season = Spring
	gs.Year++
}

// StrongholdCounts tallies how many strongholds each faction's units occupy.
func StrongholdCounts(gs *GameState, m *WorldMap) map[Faction]int {
	counts := make(map[Faction]int)
	for _, u := range gs.Units {
		if p, ok := m.Provinces[u.Province]; ok && p.Stronghold {
			counts[u.Faction]++
		}
	}
	return counts
}

// Winner returns the faction that has won, if any. Victory is holding a
// strict majority of the strongholds, or being the last faction with units
// on the board.
func Winner(gs *GameState, m *WorldMap) (Faction, bool) {
	alive := make([]Faction, 0, 4)
	for _, f := range AllFactions() {
		if gs.FactionIsAlive(f) {
			alive = append(alive, f)
		}
	}
	if len(alive) == 1 {
		return alive[0], true
	}

	strongholds := 0
	for _, p := range m.Provinces {
		if p.Stronghold {
			strongholds++
		}
	}
	for f, n := range StrongholdCounts(gs, m) {
		if n*2 > strongholds {
			return f, true
		}
	}
	return Nobody, false
}
