package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ewagner/gentle-conquest/internal/bot"
	"github.com/ewagner/gentle-conquest/internal/model"
	"github.com/ewagner/gentle-conquest/internal/repository"
	"github.com/ewagner/gentle-conquest/pkg/conquest"
)

// TurnService orchestrates turn transitions: adjudication, state advancement,
// and timer management for the async turn system.
type TurnService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	cache       repository.GameCache
	broadcaster Broadcaster

	// gameLocks prevents concurrent turn resolution for the same game.
	// Both the keyspace listener and poller can fire simultaneously;
	// without locking, both resolve the same turn creating duplicate next turns.
	gameLocks sync.Map
}

// NewTurnService creates a TurnService.
func NewTurnService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TurnService{
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

// RecoverActiveGames rehydrates Redis state for all active games from Postgres.
// Called on server startup to restore timers and game state lost during a restart.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		turn, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if turn == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current turn, skipping")
			continue
		}

		factions := activeFactions(&game)

		// Rehydrate game state from the turn's state_before
		if err := s.cache.SetGameState(ctx, game.ID, turn.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game state")
			continue
		}

		// Restore timer if deadline is still in the future
		if time.Now().Before(turn.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, turn.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		// Auto-ready eliminated factions
		var gs conquest.GameState
		if err := json.Unmarshal(turn.StateBefore, &gs); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to unmarshal state for recovery")
			continue
		}
		if err := s.autoReadyEliminatedFactions(ctx, game.ID, &gs, factions); err != nil {
			log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to auto-ready eliminated factions during recovery")
		}

		// Submit bot orders in a background goroutine
		gameCopy := game
		go func() {
			botCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.SubmitBotOrders(botCtx, gameCopy.ID); err != nil {
				log.Error().Err(err).Str("gameId", gameCopy.ID).Msg("Failed to submit bot orders during recovery")
			}
		}()

		log.Info().Str("gameId", game.ID).
			Int("year", turn.Year).Str("season", turn.Season).
			Time("deadline", turn.Deadline).
			Msg("Recovered game state")
	}

	return nil
}

// ReadyCount returns the number of factions that have marked ready for the current turn.
func (s *TurnService) ReadyCount(ctx context.Context, gameID string) (int, error) {
	count, err := s.cache.ReadyCount(ctx, gameID)
	return int(count), err
}

// gameLock returns the mutex for a given game ID.
func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// InitializeGame sets up Redis state and timer when a game starts.
// Called after StartGame assigns factions and creates the first turn.
func (s *TurnService) InitializeGame(ctx context.Context, gameID string, state *conquest.GameState, deadline time.Time) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal initial state: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}
	return nil
}

// SubmitBotOrders generates and submits orders for all bot factions in a game,
// marks them ready, and triggers resolution if all factions are ready.
func (s *TurnService) SubmitBotOrders(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game for bot orders: %w", err)
	}
	if game.Status != "active" {
		return nil
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil || turn == nil {
		return fmt.Errorf("get current turn for bot orders: %w", err)
	}

	var gs conquest.GameState
	if err := json.Unmarshal(turn.StateBefore, &gs); err != nil {
		return fmt.Errorf("unmarshal state for bot orders: %w", err)
	}

	m := conquest.DefaultMap()

	// Build per-bot strategy map from player records
	botStrategies := make(map[string]bot.Strategy)
	for _, p := range game.Players {
		if p.IsBot && p.Faction != "" {
			botStrategies[p.Faction] = bot.StrategyForDifficulty(p.BotDifficulty)
		}
	}

	if len(botStrategies) == 0 {
		return nil
	}

	// Generate orders for all bots concurrently.
	// Order generation is pure computation (reads game state, no I/O).
	type botResult struct {
		faction    string
		strategy   bot.Strategy
		ordersJSON []byte
		err        error
	}
	resultsCh := make(chan botResult, len(botStrategies))

	for faction, strategy := range botStrategies {
		go func(faction string, strategy bot.Strategy) {
			orders := strategy.GenerateOrders(&gs, conquest.Faction(faction), m)
			ordersJSON, marshalErr := json.Marshal(orders)
			resultsCh <- botResult{faction: faction, strategy: strategy, ordersJSON: ordersJSON, err: marshalErr}
		}(faction, strategy)
	}

	// Collect results and submit orders sequentially (Redis writes).
	for range botStrategies {
		res := <-resultsCh
		if res.err != nil {
			return fmt.Errorf("marshal bot orders for %s: %w", res.faction, res.err)
		}

		if err := s.cache.SetOrders(ctx, gameID, res.faction, res.ordersJSON); err != nil {
			return fmt.Errorf("cache bot orders for %s: %w", res.faction, err)
		}
		if err := s.cache.MarkReady(ctx, gameID, res.faction); err != nil {
			return fmt.Errorf("mark bot ready for %s: %w", res.faction, err)
		}

		log.Debug().Str("gameId", gameID).Str("faction", res.faction).Str("strategy", res.strategy.Name()).Msg("Bot orders submitted")
	}

	// Check if all factions are now ready
	readyCount, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("ready count after bot orders: %w", err)
	}
	totalFactions := len(activeFactions(game))

	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"ready_count":    readyCount,
		"total_factions": totalFactions,
	})

	if int(readyCount) >= totalFactions {
		log.Info().Str("gameId", gameID).Msg("All factions ready after bot orders, resolving turn")
		if err := s.ResolveTurnEarly(ctx, gameID); err != nil {
			return fmt.Errorf("auto-resolve after bot orders: %w", err)
		}
	}

	return nil
}

// ResolveTurn performs the full turn resolution cycle:
// 1. Read state and orders from Redis
// 2. Default missing orders to Hold
// 3. Link supports and adjudicate
// 4. Save results to Postgres
// 5. Advance state, check for game over
// 6. Update Redis and set next timer
func (s *TurnService) ResolveTurn(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, false)
}

// ResolveTurnEarly is called when all players have marked ready before the deadline.
func (s *TurnService) ResolveTurnEarly(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, true)
}

func (s *TurnService) resolveTurnInternal(ctx context.Context, gameID string, early bool) error {
	// Per-game lock prevents concurrent resolution from keyspace + poller
	// or from early-resolution goroutines racing with timer expiry.
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil || turn == nil {
		return fmt.Errorf("get current turn: %w", err)
	}

	// Guard against resolving a turn whose deadline hasn't passed yet
	// (unless triggered by all players being ready).
	if !early && time.Now().Before(turn.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", turn.Deadline).Msg("Turn deadline not yet reached, skipping")
		return nil
	}

	log.Info().Str("gameId", gameID).Str("turnId", turn.ID).
		Bool("early", early).
		Int("year", turn.Year).Str("season", turn.Season).
		Msg("Resolving turn")

	// Load state from Redis (or fallback to Postgres)
	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		stateJSON = turn.StateBefore
	}

	var gs conquest.GameState
	if err := json.Unmarshal(stateJSON, &gs); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}

	m := conquest.DefaultMap()
	factions := activeFactions(game)

	set, err := s.collectOrders(ctx, gameID, &gs, m, factions)
	if err != nil {
		return fmt.Errorf("collect orders: %w", err)
	}

	set.LinkSupports(&gs, m)
	res, err := conquest.Resolve(set, &gs, m)
	if err != nil {
		return fmt.Errorf("adjudicate turn: %w", err)
	}
	next := conquest.Apply(&gs, set, res)

	// Save resolved orders to Postgres
	modelOrders := resolvedOrdersToModel(turn.ID, set, res)
	if err := s.turnRepo.SaveOrders(ctx, modelOrders); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}

	return s.advanceToNextTurn(ctx, game, turn, next, res, m, factions)
}

// advanceToNextTurn saves the resolved turn, checks for game over,
// and creates the next turn with a new timer.
func (s *TurnService) advanceToNextTurn(
	ctx context.Context,
	game *model.Game,
	turn *model.Turn,
	gs *conquest.GameState,
	res *conquest.Resolution,
	m *conquest.WorldMap,
	factions []string,
) error {
	stateAfterJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal state after: %w", err)
	}
	reportJSON, err := json.Marshal(buildReport(res))
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.turnRepo.ResolveTurn(ctx, turn.ID, stateAfterJSON, reportJSON); err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}

	// Advance the calendar
	conquest.AdvanceState(gs)

	// Check for game over
	if winner, over := conquest.Winner(gs, m); over {
		log.Info().Str("gameId", game.ID).Str("winner", string(winner)).Msg("Game won")
		if err := s.gameRepo.SetFinished(ctx, game.ID, string(winner)); err != nil {
			return fmt.Errorf("set finished: %w", err)
		}
		s.broadcaster.BroadcastGameEvent(game.ID, "game_ended", map[string]any{
			"winner": string(winner),
		})
		return s.cache.DeleteGameData(ctx, game.ID, factions)
	}

	// Create next turn
	newStateJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal new state: %w", err)
	}

	dur := parseDuration(game.TurnDuration)
	deadline := time.Now().Add(dur)

	_, err = s.turnRepo.CreateTurn(ctx, game.ID, gs.Year, string(gs.Season), newStateJSON, deadline)
	if err != nil {
		return fmt.Errorf("create next turn: %w", err)
	}

	// Update Redis: new state, clear old orders/ready, set new timer
	if err := s.cache.ClearTurnData(ctx, game.ID, factions); err != nil {
		return fmt.Errorf("clear turn data: %w", err)
	}
	if err := s.cache.SetGameState(ctx, game.ID, newStateJSON); err != nil {
		return fmt.Errorf("set new state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, game.ID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	// Auto-ready eliminated factions so the game doesn't stall waiting on them.
	if err := s.autoReadyEliminatedFactions(ctx, game.ID, gs, factions); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to auto-ready eliminated factions")
	}

	log.Info().
		Str("gameId", game.ID).
		Str("season", string(gs.Season)).
		Int("year", gs.Year).
		Time("deadline", deadline).
		Int("unitCount", len(gs.Units)).
		Msg("Game advanced to next turn")

	// Broadcast AFTER new turn is created so UI can fetch it immediately
	s.broadcaster.BroadcastGameEvent(game.ID, "turn_resolved", map[string]any{
		"turn_id": turn.ID,
		"year":    turn.Year,
		"season":  turn.Season,
	})
	s.broadcaster.BroadcastGameEvent(game.ID, "turn_changed", map[string]any{
		"year":     gs.Year,
		"season":   string(gs.Season),
		"deadline": deadline.Format(time.RFC3339),
	})

	// Submit bot orders for the new turn in a separate goroutine.
	// Give bots at most turn_duration - 5s so they finish before the timer.
	botTimeout := dur - 5*time.Second
	if botTimeout > 30*time.Second {
		botTimeout = 30 * time.Second
	}
	if botTimeout < 5*time.Second {
		botTimeout = 5 * time.Second
	}
	go func() {
		botCtx, cancel := context.WithTimeout(context.Background(), botTimeout)
		defer cancel()
		if err := s.SubmitBotOrders(botCtx, game.ID); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to submit bot orders after turn advance")
		}
	}()

	return nil
}

// autoReadyEliminatedFactions marks factions with no units left as ready
// so the game doesn't stall waiting for players who can't issue orders.
func (s *TurnService) autoReadyEliminatedFactions(ctx context.Context, gameID string, gs *conquest.GameState, factions []string) error {
	for _, faction := range factions {
		if !gs.FactionIsAlive(conquest.Faction(faction)) {
			if err := s.cache.MarkReady(ctx, gameID, faction); err != nil {
				return fmt.Errorf("auto-ready %s: %w", faction, err)
			}
			log.Info().Str("gameId", gameID).Str("faction", faction).Msg("Auto-readied eliminated faction")
		}
	}
	return nil
}

// collectOrders gathers orders from Redis into a single order set and
// defaults every unordered unit to Hold. Orders that fail validation or
// duplicate a unit are dropped in favor of the default; a late bad
// submission must not block adjudication for everyone else.
func (s *TurnService) collectOrders(
	ctx context.Context,
	gameID string,
	gs *conquest.GameState,
	m *conquest.WorldMap,
	factions []string,
) (*conquest.OrderSet, error) {
	allOrdersRaw, err := s.cache.GetAllOrders(ctx, gameID, factions)
	if err != nil {
		return nil, err
	}

	set := conquest.NewOrderSet()
	for _, faction := range factions {
		raw, ok := allOrdersRaw[faction]
		if !ok {
			continue
		}
		var orders []conquest.Order
		if err := json.Unmarshal(raw, &orders); err != nil {
			log.Warn().Str("faction", faction).Str("gameId", gameID).Msg("Invalid orders, using defaults")
			continue
		}
		for _, o := range orders {
			if err := conquest.ValidateOrder(o, conquest.Faction(faction), gs, m); err != nil {
				log.Warn().Err(err).Str("faction", faction).Str("gameId", gameID).Msg("Dropping invalid order")
				continue
			}
			if err := set.Add(o); err != nil {
				log.Warn().Err(err).Str("faction", faction).Str("gameId", gameID).Msg("Dropping duplicate order")
			}
		}
	}

	conquest.FillHolds(set, gs)
	return set, nil
}

// activeFactions returns the list of factions assigned to players in this game.
func activeFactions(game *model.Game) []string {
	var factions []string
	for _, p := range game.Players {
		if p.Faction != "" {
			factions = append(factions, p.Faction)
		}
	}
	return factions
}

// turnReport is the adjudication diagnostic persisted alongside a resolved turn.
type turnReport struct {
	Outcomes        map[string]string         `json:"outcomes"`
	SupportStatuses map[string]string         `json:"support_statuses"`
	Strengths       map[string]int            `json:"strengths"`
	Conflicts       map[string]conflictReport `json:"conflicts,omitempty"`
}

type conflictReport struct {
	Strengths map[string]int `json:"strengths"`
	IsTie     bool           `json:"is_tie"`
	Winner    string         `json:"winner,omitempty"`
}

func buildReport(res *conquest.Resolution) turnReport {
	r := turnReport{
		Outcomes:        make(map[string]string, len(res.Outcomes)),
		SupportStatuses: make(map[string]string, len(res.SupportStatuses)),
		Strengths:       res.Strengths,
	}
	for unitID, o := range res.Outcomes {
		r.Outcomes[unitID] = o.String()
	}
	for orderID, st := range res.SupportStatuses {
		r.SupportStatuses[orderID] = st.String()
	}
	if len(res.Conflicts) > 0 {
		r.Conflicts = make(map[string]conflictReport, len(res.Conflicts))
		for prov, c := range res.Conflicts {
			r.Conflicts[prov] = conflictReport{Strengths: c.Strengths, IsTie: c.IsTie, Winner: c.Winner}
		}
	}
	return r
}

// resolvedOrdersToModel converts the adjudicated order set to database rows.
func resolvedOrdersToModel(turnID string, set *conquest.OrderSet, res *conquest.Resolution) []model.Order {
	var orders []model.Order
	for _, o := range set.All() {
		orders = append(orders, model.Order{
			TurnID:        turnID,
			Faction:       string(o.Faction),
			UnitID:        o.UnitID,
			Location:      o.Location,
			OrderType:     orderKindStr(o.Kind),
			Target:        o.Target,
			SupportLoc:    o.SupportLoc,
			SupportTarget: o.SupportTarget,
			Result:        orderResultStr(o, res),
		})
	}
	return orders
}

func orderKindStr(k conquest.OrderKind) string {
	switch k {
	case conquest.OrderMove:
		return "move"
	case conquest.OrderSupport:
		return "support"
	default:
		return "hold"
	}
}

// orderResultStr derives the persisted result string for one order.
// Supports report their status; holds and moves report their unit's outcome.
func orderResultStr(o *conquest.Order, res *conquest.Resolution) string {
	if o.Kind == conquest.OrderSupport {
		st := res.SupportStatuses[o.ID]
		if st == conquest.SupportInvalid {
			return "invalid:" + o.Reason.String()
		}
		if res.Outcomes[o.UnitID] == conquest.OutcomeDislodged {
			return st.String() + ",dislodged"
		}
		return st.String()
	}

	outcome := res.Outcomes[o.UnitID]
	if o.Kind == conquest.OrderMove && outcome == conquest.OutcomeStood {
		return "bounced"
	}
	return outcome.String()
}

// CleanupStoppedGame broadcasts the game_ended event and clears cached game data.
func (s *TurnService) CleanupStoppedGame(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	factions := activeFactions(game)
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": "",
		"reason": "stopped",
	})
	return s.cache.DeleteGameData(ctx, gameID, factions)
}
