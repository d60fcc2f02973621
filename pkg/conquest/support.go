package conquest

// LinkSupports resolves every support order in the set to either the order
// it legally supports or an invalidity reason. It is a pure function of the
// order set, the occupancy in gs, and the adjacency relation in m: calling
// it again on the same inputs produces identical links. Hold and move
// orders are untouched.
//
// After this returns the set should not be modified; resolution reads the
// links but never changes them.
func (s *OrderSet) LinkSupports(gs *GameState, m *WorldMap) {
	for _, o := range s.orders {
		if o.Kind != OrderSupport {
			continue
		}
		o.SupportedOrderID = ""
		o.Reason = linkSupport(o, s, gs, m)
	}
}

// linkSupport attaches a single support order, setting SupportedOrderID on
// success and returning the reason code otherwise.
func linkSupport(o *Order, s *OrderSet, gs *GameState, m *WorldMap) SupportReason {
	target := gs.UnitAt(o.SupportLoc)
	if target == nil {
		return ReasonUnitNotFound
	}

	targetOrder := s.ByUnit(target.ID)
	if targetOrder == nil {
		return ReasonTargetHasNoOrder
	}

	if !m.Adjacent(o.Location, o.ActionProvince()) {
		return ReasonNotAdjacentToAction
	}

	// The claim must match the target's real order. A hold-support needs an
	// explicit Hold: a move that later bounces never retroactively becomes
	// a valid hold target.
	if o.SupportsMove() {
		if targetOrder.Kind != OrderMove || targetOrder.Target != o.SupportTarget {
			return ReasonActionMismatch
		}
	} else {
		if targetOrder.Kind != OrderHold {
			return ReasonActionMismatch
		}
	}

	o.SupportedOrderID = targetOrder.ID
	return ReasonNone
}
