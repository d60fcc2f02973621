package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ewagner/gentle-conquest/internal/model"
	"github.com/ewagner/gentle-conquest/internal/repository"
	"github.com/ewagner/gentle-conquest/pkg/conquest"
)

var (
	ErrNoActiveTurn   = errors.New("no active turn")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrDuplicateOrder = errors.New("duplicate order for unit")
)

// OrderSubmission is the request payload for submitting orders.
type OrderSubmission struct {
	Orders []OrderInput `json:"orders"`
}

// OrderInput represents a single order from the client.
type OrderInput struct {
	UnitID        string `json:"unit_id"`
	Location      string `json:"location"`
	OrderType     string `json:"order_type"`
	Target        string `json:"target,omitempty"`
	SupportLoc    string `json:"support_loc,omitempty"`
	SupportTarget string `json:"support_target,omitempty"`
}

// OrderService handles order submission and validation.
type OrderService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	cache    repository.GameCache
}

// NewOrderService creates an OrderService.
func NewOrderService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.GameCache) *OrderService {
	return &OrderService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache}
}

// GameRepo returns the game repository for use by handlers.
func (s *OrderService) GameRepo() repository.GameRepository {
	return s.gameRepo
}

// SubmitOrders validates a faction's orders against the current turn state
// and stores them in Redis. One order per unit; a second order for the same
// unit in one submission is rejected outright.
func (s *OrderService) SubmitOrders(ctx context.Context, gameID, userID string, inputs []OrderInput) ([]model.Order, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	// Find the player's faction
	faction := ""
	for _, p := range game.Players {
		if p.UserID == userID {
			faction = p.Faction
			break
		}
	}
	if faction == "" {
		return nil, ErrNotInGame
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, ErrNoActiveTurn
	}

	var gs conquest.GameState
	if err := json.Unmarshal(turn.StateBefore, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}

	m := conquest.DefaultMap()
	f := conquest.Faction(faction)

	set := conquest.NewOrderSet()
	var engineOrders []conquest.Order
	for _, in := range inputs {
		o := toEngineOrder(in, f)
		if err := conquest.ValidateOrder(o, f, &gs, m); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidOrder, err)
		}
		if err := set.Add(o); err != nil {
			var dup *conquest.DuplicateOrderError
			if errors.As(err, &dup) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, dup.UnitID)
			}
			return nil, err
		}
		engineOrders = append(engineOrders, o)
	}

	ordersJSON, err := json.Marshal(engineOrders)
	if err != nil {
		return nil, fmt.Errorf("marshal orders: %w", err)
	}
	if err := s.cache.SetOrders(ctx, gameID, faction, ordersJSON); err != nil {
		return nil, fmt.Errorf("cache orders: %w", err)
	}

	return inputsToModelOrders(turn.ID, faction, inputs), nil
}

func inputsToModelOrders(turnID, faction string, inputs []OrderInput) []model.Order {
	var modelOrders []model.Order
	for _, in := range inputs {
		modelOrders = append(modelOrders, model.Order{
			TurnID:        turnID,
			Faction:       faction,
			UnitID:        in.UnitID,
			Location:      in.Location,
			OrderType:     in.OrderType,
			Target:        in.Target,
			SupportLoc:    in.SupportLoc,
			SupportTarget: in.SupportTarget,
		})
	}
	return modelOrders
}

// MarkReady marks a player's faction as ready and returns the ready count
// and total faction count.
func (s *OrderService) MarkReady(ctx context.Context, gameID, userID string) (int64, int, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return 0, 0, err
	}
	if game == nil {
		return 0, 0, ErrGameNotFound
	}

	faction := ""
	for _, p := range game.Players {
		if p.UserID == userID {
			faction = p.Faction
			break
		}
	}
	if faction == "" {
		return 0, 0, ErrNotInGame
	}

	if err := s.cache.MarkReady(ctx, gameID, faction); err != nil {
		return 0, 0, fmt.Errorf("mark ready: %w", err)
	}

	readyCount, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return 0, 0, fmt.Errorf("ready count: %w", err)
	}

	totalFactions := len(activeFactions(game))
	return readyCount, totalFactions, nil
}

// UnmarkReady removes a player's ready status (e.g., when resubmitting orders).
func (s *OrderService) UnmarkReady(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}

	faction := ""
	for _, p := range game.Players {
		if p.UserID == userID {
			faction = p.Faction
			break
		}
	}
	if faction == "" {
		return ErrNotInGame
	}

	return s.cache.UnmarkReady(ctx, gameID, faction)
}

// GetOrders returns the orders for a turn from Postgres.
func (s *OrderService) GetOrders(ctx context.Context, turnID string) ([]model.Order, error) {
	return s.turnRepo.OrdersByTurn(ctx, turnID)
}

func toEngineOrder(in OrderInput, f conquest.Faction) conquest.Order {
	return conquest.Order{
		UnitID:        in.UnitID,
		Faction:       f,
		Location:      in.Location,
		Kind:          parseOrderKind(in.OrderType),
		Target:        in.Target,
		SupportLoc:    in.SupportLoc,
		SupportTarget: in.SupportTarget,
	}
}

func parseOrderKind(s string) conquest.OrderKind {
	switch s {
	case "move":
		return conquest.OrderMove
	case "support":
		return conquest.OrderSupport
	default:
		return conquest.OrderHold
	}
}
