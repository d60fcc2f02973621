package conquest

import "fmt"

// ValidationError rejects a single order that cannot be accepted as
// submitted. Invalid supports are not validation errors: a support whose
// claim turns out to be wrong is accepted and marked invalid during
// linkage instead.
type ValidationError struct {
	UnitID  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order for %s: %s", e.UnitID, e.Message)
}

// ValidateOrder checks that an order is structurally acceptable for the
// given faction: the unit exists and is theirs, the order is placed where
// the unit stands, and every referenced province exists. Moves must also
// be adjacent and terrain-legal for the unit.
func ValidateOrder(o Order, f Faction, gs *GameState, m *WorldMap) error {
	unit := gs.Unit(o.UnitID)
	if unit == nil {
		return &ValidationError{UnitID: o.UnitID, Message: "no such unit"}
	}
	if unit.Faction != f {
		return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("unit belongs to %s", unit.Faction)}
	}
	if o.Faction != unit.Faction {
		return &ValidationError{UnitID: o.UnitID, Message: "order faction does not match unit"}
	}
	if o.Location != unit.Province {
		return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("unit is at %s, not %s", unit.Province, o.Location)}
	}

	switch o.Kind {
	case OrderHold:
		return nil
	case OrderMove:
		if !m.HasProvince(o.Target) {
			return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("unknown destination %q", o.Target)}
		}
		if !m.Adjacent(o.Location, o.Target) {
			return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("%s is not adjacent to %s", o.Target, o.Location)}
		}
		if !m.CanOccupy(unit.Kind, o.Target) {
			return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("%s unit cannot enter %s", unit.Kind, o.Target)}
		}
		return nil
	case OrderSupport:
		if !m.HasProvince(o.SupportLoc) {
			return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("unknown supported province %q", o.SupportLoc)}
		}
		if o.SupportTarget != "" && !m.HasProvince(o.SupportTarget) {
			return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("unknown support destination %q", o.SupportTarget)}
		}
		return nil
	default:
		return &ValidationError{UnitID: o.UnitID, Message: fmt.Sprintf("unknown order kind %d", o.Kind)}
	}
}

// FillHolds adds a hold order for every unit the set has no order for.
// Adjudication expects a complete set, so submission gaps default to
// holding in place.
func FillHolds(set *OrderSet, gs *GameState) {
	for _, u := range gs.Units {
		if set.ByUnit(u.ID) != nil {
			continue
		}
		set.Add(Order{
			UnitID:   u.ID,
			Faction:  u.Faction,
			Location: u.Province,
			Kind:     OrderHold,
		})
	}
}
