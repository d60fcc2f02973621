package bot

import (
	"github.com/ewagner/gentle-conquest/pkg/conquest"
)

// Strategy generates a faction's orders for one turn.
type Strategy interface {
	Name() string
	GenerateOrders(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) []conquest.Order
}

// StrategyForDifficulty returns the appropriate strategy for a bot difficulty level.
func StrategyForDifficulty(difficulty string) Strategy {
	switch difficulty {
	case "medium":
		return &TacticalStrategy{}
	case "hard":
		return &SearchStrategy{}
	case "random":
		return &RandomStrategy{}
	case "hold":
		return &HoldStrategy{}
	default:
		return &GreedyStrategy{}
	}
}

// --- HoldStrategy ---

// HoldStrategy holds every unit in place. Useful as a baseline opponent.
type HoldStrategy struct{}

func (HoldStrategy) Name() string { return "hold" }

func (HoldStrategy) GenerateOrders(gs *conquest.GameState, faction conquest.Faction, _ *conquest.WorldMap) []conquest.Order {
	var orders []conquest.Order
	for _, u := range gs.UnitsOf(faction) {
		orders = append(orders, holdOrder(u))
	}
	return orders
}

// --- RandomStrategy ---

// RandomStrategy generates random but legal orders. ~30% hold, ~70% move.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) GenerateOrders(gs *conquest.GameState, faction conquest.Faction, m *conquest.WorldMap) []conquest.Order {
	var orders []conquest.Order
	for _, u := range gs.UnitsOf(faction) {
		if botFloat64() < 0.3 {
			orders = append(orders, holdOrder(u))
			continue
		}

		adj := m.Neighbors(u.Province)
		moved := false
		for _, idx := range botPerm(len(adj)) {
			target := adj[idx]
			if !m.CanOccupy(u.Kind, target) {
				continue
			}
			o := moveOrder(u, target)
			if conquest.ValidateOrder(o, faction, gs, m) != nil {
				continue
			}
			orders = append(orders, o)
			moved = true
			break
		}
		if !moved {
			orders = append(orders, holdOrder(u))
		}
	}
	return orders
}

func holdOrder(u conquest.Unit) conquest.Order {
	return conquest.Order{
		UnitID:   u.ID,
		Faction:  u.Faction,
		Location: u.Province,
		Kind:     conquest.OrderHold,
	}
}

func moveOrder(u conquest.Unit, target string) conquest.Order {
	return conquest.Order{
		UnitID:   u.ID,
		Faction:  u.Faction,
		Location: u.Province,
		Kind:     conquest.OrderMove,
		Target:   target,
	}
}

func supportOrder(u conquest.Unit, supported *conquest.Order) conquest.Order {
	o := conquest.Order{
		UnitID:     u.ID,
		Faction:    u.Faction,
		Location:   u.Province,
		Kind:       conquest.OrderSupport,
		SupportLoc: supported.Location,
	}
	if supported.Kind == conquest.OrderMove {
		o.SupportTarget = supported.Target
	}
	return o
}
