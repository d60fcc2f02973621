package conquest

import (
	"errors"
	"testing"
)

// Helper to create a game state with specific units.
func stateWith(units ...Unit) *GameState {
	return &GameState{Year: 1, Season: Spring, Units: units}
}

// Helper to build an order set, failing the test on duplicates.
func ordersFor(t *testing.T, orders ...Order) *OrderSet {
	t.Helper()
	set := NewOrderSet()
	for _, o := range orders {
		if err := set.Add(o); err != nil {
			t.Fatalf("add order for %s: %v", o.UnitID, err)
		}
	}
	return set
}

// Helper to link supports and resolve in one step.
func adjudicate(t *testing.T, set *OrderSet, gs *GameState) *Resolution {
	t.Helper()
	m := DefaultMap()
	set.LinkSupports(gs, m)
	res, err := Resolve(set, gs, m)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return res
}

func TestLoneHold(t *testing.T) {
	gs := stateWith(Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"})
	set := ordersFor(t, Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderHold})

	res := adjudicate(t, set, gs)
	if res.Outcomes["u1"] != OutcomeStood {
		t.Errorf("expected u1 to stand, got %s", res.Outcomes["u1"])
	}
	if len(res.Conflicts) != 0 {
		t.Errorf("expected no conflicts, got %d", len(res.Conflicts))
	}
}

func TestSupportedMoveIntoEmptyProvince(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "gly", SupportTarget: "har"},
	)

	res := adjudicate(t, set, gs)
	if res.Outcomes["u1"] != OutcomeMoved {
		t.Errorf("expected u1 to move, got %s", res.Outcomes["u1"])
	}
	if got := res.Strengths["order-u1"]; got != 2 {
		t.Errorf("expected move strength 2, got %d", got)
	}
	if got := res.SupportStatuses["order-u2"]; got != SupportValid {
		t.Errorf("expected support valid, got %s", got)
	}
}

func TestEqualStrengthBounce(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u2", Faction: Beryn, Kind: LandUnit, Province: "cal"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u2", Faction: Beryn, Location: "cal", Kind: OrderMove, Target: "har"},
	)

	res := adjudicate(t, set, gs)
	if res.Outcomes["u1"] != OutcomeStood || res.Outcomes["u2"] != OutcomeStood {
		t.Errorf("expected both units to stand, got %s and %s", res.Outcomes["u1"], res.Outcomes["u2"])
	}
	c, ok := res.Conflicts["har"]
	if !ok {
		t.Fatal("expected a conflict at har")
	}
	if !c.IsTie {
		t.Error("expected conflict to be a tie")
	}
	if c.Winner != "" {
		t.Errorf("expected no winner, got %s", c.Winner)
	}
	if len(c.Strengths) != 2 || c.Strengths["u1"] != 1 || c.Strengths["u2"] != 1 {
		t.Errorf("expected two contenders at strength 1, got %v", c.Strengths)
	}
}

func TestSupportedAttackDislodgesHolder(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"},
		Unit{ID: "u3", Faction: Beryn, Kind: LandUnit, Province: "har"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "gly", SupportTarget: "har"},
		Order{UnitID: "u3", Faction: Beryn, Location: "har", Kind: OrderHold},
	)

	res := adjudicate(t, set, gs)
	if res.Outcomes["u1"] != OutcomeMoved {
		t.Errorf("expected u1 to move, got %s", res.Outcomes["u1"])
	}
	if res.Outcomes["u3"] != OutcomeDislodged {
		t.Errorf("expected u3 dislodged, got %s", res.Outcomes["u3"])
	}
	c := res.Conflicts["har"]
	if c.IsTie || c.Winner != "u1" {
		t.Errorf("expected u1 to win at har, got tie=%v winner=%s", c.IsTie, c.Winner)
	}
}

func TestSupportForMissingUnitIsInvalid(t *testing.T) {
	gs := stateWith(Unit{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"})
	set := ordersFor(t,
		Order{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "mid", SupportTarget: "har"},
	)

	res := adjudicate(t, set, gs)
	if got := res.SupportStatuses["order-u2"]; got != SupportInvalid {
		t.Errorf("expected support invalid, got %s", got)
	}
	if got := set.Get("order-u2").Reason; got != ReasonUnitNotFound {
		t.Errorf("expected reason unit_not_found, got %s", got)
	}
	if got := res.Strengths["order-u2"]; got != 1 {
		t.Errorf("invalid support should keep its own base strength, got %d", got)
	}
}

func TestEnemyAttackCutsSupport(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"},
		Unit{ID: "u3", Faction: Beryn, Kind: LandUnit, Province: "har"},
		Unit{ID: "u4", Faction: Beryn, Kind: LandUnit, Province: "zan"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "gly", SupportTarget: "har"},
		Order{UnitID: "u3", Faction: Beryn, Location: "har", Kind: OrderHold},
		Order{UnitID: "u4", Faction: Beryn, Location: "zan", Kind: OrderMove, Target: "cal"},
	)

	res := adjudicate(t, set, gs)
	if got := res.SupportStatuses["order-u2"]; got != SupportCut {
		t.Errorf("expected support cut, got %s", got)
	}
	if got := res.Strengths["order-u1"]; got != 1 {
		t.Errorf("expected attack reduced to strength 1, got %d", got)
	}
	if res.Outcomes["u1"] != OutcomeStood {
		t.Errorf("expected u1 to bounce, got %s", res.Outcomes["u1"])
	}
	if res.Outcomes["u3"] != OutcomeStood {
		t.Errorf("expected u3 to hold, got %s", res.Outcomes["u3"])
	}
}

func TestSameFactionAttackDoesNotCut(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"},
		Unit{ID: "u3", Faction: Aldren, Kind: LandUnit, Province: "zan"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "gly", SupportTarget: "har"},
		Order{UnitID: "u3", Faction: Aldren, Location: "zan", Kind: OrderMove, Target: "cal"},
	)

	res := adjudicate(t, set, gs)
	if got := res.SupportStatuses["order-u2"]; got != SupportValid {
		t.Errorf("expected support to survive a friendly move, got %s", got)
	}
	if got := res.Strengths["order-u1"]; got != 2 {
		t.Errorf("expected strength 2, got %d", got)
	}
}

func TestCounterattackFromActionProvinceDoesNotCut(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"},
		Unit{ID: "u3", Faction: Beryn, Kind: LandUnit, Province: "har"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "gly", SupportTarget: "har"},
		Order{UnitID: "u3", Faction: Beryn, Location: "har", Kind: OrderMove, Target: "cal"},
	)

	res := adjudicate(t, set, gs)
	if got := res.SupportStatuses["order-u2"]; got != SupportValid {
		t.Errorf("expected support to survive a counterattack from har, got %s", got)
	}
	if res.Outcomes["u1"] != OutcomeMoved {
		t.Errorf("expected u1 to take har, got %s", res.Outcomes["u1"])
	}
	if res.Outcomes["u3"] != OutcomeDislodged {
		t.Errorf("expected u3 dislodged after its move bounced, got %s", res.Outcomes["u3"])
	}
	if res.Outcomes["u2"] != OutcomeStood {
		t.Errorf("expected u2 to stand, got %s", res.Outcomes["u2"])
	}
}

func TestOrderlessOccupantDefendsAtStrengthOne(t *testing.T) {
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u3", Faction: Beryn, Kind: LandUnit, Province: "har"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
	)

	res := adjudicate(t, set, gs)
	if res.Outcomes["u1"] != OutcomeStood {
		t.Errorf("expected u1 to bounce off the occupant, got %s", res.Outcomes["u1"])
	}
	if res.Outcomes["u3"] != OutcomeStood {
		t.Errorf("expected u3 to stand, got %s", res.Outcomes["u3"])
	}
	c := res.Conflicts["har"]
	if !c.IsTie {
		t.Error("expected a tie between attacker and occupant")
	}
}

func TestMoveIntoVacatingProvinceBounces(t *testing.T) {
	// The occupant's own move still contends at har, so an unsupported
	// follow-up move ties with it even though har ends up empty.
	gs := stateWith(
		Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		Unit{ID: "u3", Faction: Beryn, Kind: LandUnit, Province: "har"},
	)
	set := ordersFor(t,
		Order{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		Order{UnitID: "u3", Faction: Beryn, Location: "har", Kind: OrderMove, Target: "cal"},
	)

	res := adjudicate(t, set, gs)
	if res.Outcomes["u1"] != OutcomeStood {
		t.Errorf("expected u1 to bounce, got %s", res.Outcomes["u1"])
	}
	if res.Outcomes["u3"] != OutcomeMoved {
		t.Errorf("expected u3 to reach cal, got %s", res.Outcomes["u3"])
	}
}

func TestStrengthMonotonicUnderCutRemoval(t *testing.T) {
	base := []Unit{
		{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"},
		{ID: "u2", Faction: Aldren, Kind: LandUnit, Province: "cal"},
	}
	orders := []Order{
		{UnitID: "u1", Faction: Aldren, Location: "gly", Kind: OrderMove, Target: "har"},
		{UnitID: "u2", Faction: Aldren, Location: "cal", Kind: OrderSupport, SupportLoc: "gly", SupportTarget: "har"},
	}

	cutState := stateWith(append(base, Unit{ID: "u4", Faction: Beryn, Kind: LandUnit, Province: "zan"})...)
	cutSet := ordersFor(t, append(orders, Order{UnitID: "u4", Faction: Beryn, Location: "zan", Kind: OrderMove, Target: "cal"})...)
	withCut := adjudicate(t, cutSet, cutState)

	freeSet := ordersFor(t, orders...)
	withoutCut := adjudicate(t, freeSet, stateWith(base...))

	if withoutCut.Strengths["order-u1"] < withCut.Strengths["order-u1"] {
		t.Errorf("strength decreased when the cut was removed: %d < %d",
			withoutCut.Strengths["order-u1"], withCut.Strengths["order-u1"])
	}
}

func TestEveryUnitGetsExactlyOneOutcome(t *testing.T) {
	gs := NewInitialState()
	set := ordersFor(t,
		Order{UnitID: "aldren-1", Faction: Aldren, Location: "nor", Kind: OrderMove, Target: "kel"},
		Order{UnitID: "beryn-1", Faction: Beryn, Location: "tor", Kind: OrderMove, Target: "vys"},
	)
	FillHolds(set, gs)

	res := adjudicate(t, set, gs)
	if len(res.Outcomes) != len(gs.Units) {
		t.Fatalf("expected %d outcomes, got %d", len(gs.Units), len(res.Outcomes))
	}
	for _, u := range gs.Units {
		if _, ok := res.Outcomes[u.ID]; !ok {
			t.Errorf("unit %s received no outcome", u.ID)
		}
	}
}

func TestResolveRejectsUnknownUnit(t *testing.T) {
	gs := stateWith(Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"})
	set := ordersFor(t, Order{UnitID: "ghost", Faction: Aldren, Location: "gly", Kind: OrderHold})
	m := DefaultMap()
	set.LinkSupports(gs, m)

	_, err := Resolve(set, gs, m)
	var serr *StateError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if serr.Reference != "ghost" {
		t.Errorf("expected error to reference ghost, got %s", serr.Reference)
	}
}

func TestResolveRejectsDisplacedOrder(t *testing.T) {
	gs := stateWith(Unit{ID: "u1", Faction: Aldren, Kind: LandUnit, Province: "gly"})
	set := ordersFor(t, Order{UnitID: "u1", Faction: Aldren, Location: "har", Kind: OrderHold})
	m := DefaultMap()
	set.LinkSupports(gs, m)

	if _, err := Resolve(set, gs, m); err == nil {
		t.Fatal("expected an error for an order placed away from its unit")
	}
}
