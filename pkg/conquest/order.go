package conquest

import (
	"fmt"
	"sort"
)

// OrderKind represents the kind of order a unit can be given.
type OrderKind int

const (
	OrderHold    OrderKind = iota // Unit holds position
	OrderMove                     // Unit moves to adjacent province
	OrderSupport                  // Unit supports another unit's hold or move
)

func (k OrderKind) String() string {
	switch k {
	case OrderHold:
		return "hold"
	case OrderMove:
		return "move"
	case OrderSupport:
		return "support"
	default:
		return "unknown"
	}
}

// SupportReason explains why a support order failed to attach to a target
// order during linkage. ReasonNone means the support linked successfully.
type SupportReason int

const (
	ReasonNone               SupportReason = iota
	ReasonUnitNotFound                     // No unit occupies the supported province
	ReasonTargetHasNoOrder                 // The supported unit issued no order this turn
	ReasonNotAdjacentToAction              // Supporter is not adjacent to the action province
	ReasonActionMismatch                   // The claim does not match the target's real order
)

func (r SupportReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnitNotFound:
		return "unit_not_found"
	case ReasonTargetHasNoOrder:
		return "target_has_no_order"
	case ReasonNotAdjacentToAction:
		return "not_adjacent_to_action"
	case ReasonActionMismatch:
		return "action_mismatch"
	default:
		return "unknown"
	}
}

// Order represents a single order issued to a unit.
type Order struct {
	// Identity of the order and the unit being ordered
	ID       string
	UnitID   string
	Faction  Faction
	Location string

	Kind OrderKind

	// Move destination (move orders only)
	Target string

	// Support claim (support orders only): the province of the unit being
	// supported, and the destination of its claimed move. An empty
	// SupportTarget claims a hold.
	SupportLoc    string
	SupportTarget string

	// Link, set by OrderSet.LinkSupports: either the ID of the order this
	// support legally attaches to, or the reason it attaches to nothing.
	SupportedOrderID string
	Reason           SupportReason
}

// SupportsMove returns true if the support order claims to support a move.
func (o *Order) SupportsMove() bool {
	return o.SupportTarget != ""
}

// ActionProvince returns the province where the supported action takes
// place: the claimed destination for a move-support, otherwise the
// supported unit's own province.
func (o *Order) ActionProvince() string {
	if o.SupportsMove() {
		return o.SupportTarget
	}
	return o.SupportLoc
}

// Describe returns a human-readable description of the order.
func (o *Order) Describe() string {
	switch o.Kind {
	case OrderHold:
		return fmt.Sprintf("%s Hold", o.Location)
	case OrderMove:
		return fmt.Sprintf("%s -> %s", o.Location, o.Target)
	case OrderSupport:
		if !o.SupportsMove() {
			return fmt.Sprintf("%s S %s Hold", o.Location, o.SupportLoc)
		}
		return fmt.Sprintf("%s S %s -> %s", o.Location, o.SupportLoc, o.SupportTarget)
	default:
		return fmt.Sprintf("%s ???", o.Location)
	}
}

// DuplicateOrderError reports a second order issued to a unit that already
// has one in the same set.
type DuplicateOrderError struct {
	UnitID string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("unit %s already has an order this turn", e.UnitID)
}

// OrderSet holds every order for a single turn, at most one per unit.
// Construct it once per turn, link supports, then treat it as immutable.
type OrderSet struct {
	orders map[string]*Order
	byUnit map[string]string // unit ID -> order ID
}

// NewOrderSet creates an empty OrderSet.
func NewOrderSet() *OrderSet {
	return &OrderSet{
		orders: make(map[string]*Order),
		byUnit: make(map[string]string),
	}
}

// Add inserts an order into the set. Returns a DuplicateOrderError if the
// issuing unit already has an order. An empty order ID is filled in from
// the unit ID, which is unique per set by construction.
func (s *OrderSet) Add(o Order) error {
	if _, ok := s.byUnit[o.UnitID]; ok {
		return &DuplicateOrderError{UnitID: o.UnitID}
	}
	if o.ID == "" {
		o.ID = "order-" + o.UnitID
	}
	s.orders[o.ID] = &o
	s.byUnit[o.UnitID] = o.ID
	return nil
}

// Get returns the order with the given ID, or nil if none.
func (s *OrderSet) Get(id string) *Order {
	return s.orders[id]
}

// ByUnit returns the order issued to the given unit, or nil if none.
func (s *OrderSet) ByUnit(unitID string) *Order {
	id, ok := s.byUnit[unitID]
	if !ok {
		return nil
	}
	return s.orders[id]
}

// All returns every order sorted by ID. The sort gives stable iteration
// for display and logging; resolution does not depend on it.
func (s *OrderSet) All() []*Order {
	out := make([]*Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of orders in the set.
func (s *OrderSet) Len() int {
	return len(s.orders)
}
