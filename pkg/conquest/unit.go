package conquest

// Faction represents one of the four contending factions.
type Faction string

const (
	Aldren  Faction = "aldren"
	Beryn   Faction = "beryn"
	Corvath Faction = "corvath"
	Dazhan  Faction = "dazhan"
	Nobody  Faction = ""
)

// AllFactions returns the four factions in standard order.
func AllFactions() []Faction {
	return []Faction{Aldren, Beryn, Corvath, Dazhan}
}

// UnitKind represents the kind of a military unit.
type UnitKind int

const (
	LandUnit UnitKind = iota
	SeaUnit
)

func (k UnitKind) String() string {
	if k == SeaUnit {
		return "sea"
	}
	return "land"
}

// Unit represents a single military unit on the board.
type Unit struct {
	ID       string
	Faction  Faction
	Kind     UnitKind
	Province string
}
