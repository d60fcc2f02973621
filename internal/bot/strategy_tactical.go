package bot

import (
	"github.com/ewagner/gentle-conquest/pkg/conquest"
)

// TacticalStrategy starts from the greedy plan and reassigns units to
// supports where strength decides the outcome: backing attacks on occupied
// strongholds and bracing holds on strongholds under threat. The medium
// difficulty.
type TacticalStrategy struct{}

func (TacticalStrategy) Name() string { return "tactical" }

func (TacticalStrategy) GenerateOrders(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) []conquest.Order {
	orders := GreedyStrategy{}.GenerateOrders(gs, faction, m)

	byUnit := make(map[string]int, len(orders))
	for i, o := range orders {
		byUnit[o.UnitID] = i
	}

	// Back attacks on occupied provinces. An unsupported attack on a
	// defended province always bounces, so a second unit is worth more as
	// support than as another lone advance.
	for i := range orders {
		attack := &orders[i]
		if attack.Kind != conquest.OrderMove {
			continue
		}
		occ := gs.UnitAt(attack.Target)
		if occ == nil || occ.Faction == faction {
			continue
		}
		if idx := findSupporter(gs, faction, m, orders, attack.Target, attack.UnitID); idx >= 0 {
			u := *gs.Unit(orders[idx].UnitID)
			orders[idx] = supportOrder(u, attack)
		}
	}

	// Brace strongholds under threat. A defender at strength one loses to
	// any supported attack, so garrisons outnumbered by adjacent enemies
	// get a supporting neighbor when one can be spared.
	for i := range orders {
		hold := &orders[i]
		if hold.Kind != conquest.OrderHold {
			continue
		}
		prov := m.Provinces[hold.Location]
		if prov == nil || !prov.Stronghold {
			continue
		}
		if countAdjacentEnemies(gs, faction, m, hold.Location) < 2 {
			continue
		}
		if idx := findSupporter(gs, faction, m, orders, hold.Location, hold.UnitID); idx >= 0 {
			u := *gs.Unit(orders[idx].UnitID)
			orders[idx] = supportOrder(u, hold)
		}
	}

	return orders
}

// findSupporter returns the index of an order whose unit can be rewritten
// into a support of the given action province, or -1. Only expendable
// orders are considered: holds off stronghold and moves into empty
// non-stronghold provinces.
func findSupporter(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap, orders []conquest.Order, action, actor string) int {
	for i, o := range orders {
		if o.UnitID == actor || o.Kind == conquest.OrderSupport {
			continue
		}
		if !m.Adjacent(o.Location, action) {
			continue
		}
		if !expendable(gs, faction, m, o) {
			continue
		}
		return i
	}
	return -1
}

func expendable(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap, o conquest.Order) bool {
	switch o.Kind {
	case conquest.OrderHold:
		prov := m.Provinces[o.Location]
		return prov == nil || !prov.Stronghold
	case conquest.OrderMove:
		if occ := gs.UnitAt(o.Target); occ != nil {
			return false
		}
		prov := m.Provinces[o.Target]
		return prov == nil || !prov.Stronghold
	default:
		return false
	}
}

func countAdjacentEnemies(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap, province string) int {
	count := 0
	for _, n := range m.Neighbors(province) {
		if u := gs.UnitAt(n); u != nil && u.Faction != faction {
			count++
		}
	}
	return count
}
