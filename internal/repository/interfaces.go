package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ewagner/gentle-conquest/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID, turnDur, factionAssignment string) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	SearchFinished(ctx context.Context, search string) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) error
	JoinGameAsBot(ctx context.Context, gameID, userID, difficulty string) error
	ReplaceBot(ctx context.Context, gameID, newUserID string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	AssignFactions(ctx context.Context, gameID string, assignments map[string]string) error
	ListActive(ctx context.Context) ([]model.Game, error)
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
	UpdateBotDifficulty(ctx context.Context, gameID, botUserID, difficulty string) error
	UpdatePlayerFaction(ctx context.Context, gameID, userID, faction string) error
}

// TurnRepository defines turn and order data operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, year int, season string, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error)
	ListTurns(ctx context.Context, gameID string) ([]model.Turn, error)
	ResolveTurn(ctx context.Context, turnID string, stateAfter, report json.RawMessage) error
	SaveOrders(ctx context.Context, orders []model.Order) error
	OrdersByTurn(ctx context.Context, turnID string) ([]model.Order, error)
	ListExpired(ctx context.Context) ([]model.Turn, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetOrders(ctx context.Context, gameID, faction string, orders json.RawMessage) error
	GetOrders(ctx context.Context, gameID, faction string) (json.RawMessage, error)
	GetAllOrders(ctx context.Context, gameID string, factions []string) (map[string]json.RawMessage, error)
	MarkReady(ctx context.Context, gameID, faction string) error
	UnmarkReady(ctx context.Context, gameID, faction string) error
	ReadyCount(ctx context.Context, gameID string) (int64, error)
	ReadyFactions(ctx context.Context, gameID string) ([]string, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	ClearTurnData(ctx context.Context, gameID string, factions []string) error
	DeleteGameData(ctx context.Context, gameID string, factions []string) error
}
