package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game represents a conquest game.
type Game struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	CreatorID         string       `json:"creator_id"`
	Status            string       `json:"status"` // waiting, active, finished
	Winner            string       `json:"winner,omitempty"`
	TurnDuration      string       `json:"turn_duration"`
	FactionAssignment string       `json:"faction_assignment"`
	CreatedAt         time.Time    `json:"created_at"`
	StartedAt         *time.Time   `json:"started_at,omitempty"`
	FinishedAt        *time.Time   `json:"finished_at,omitempty"`
	Players           []GamePlayer `json:"players,omitempty"`
	ReadyCount        int          `json:"ready_count,omitempty"`
}

// GamePlayer represents a player's membership in a game.
type GamePlayer struct {
	GameID        string    `json:"game_id"`
	UserID        string    `json:"user_id"`
	Faction       string    `json:"faction,omitempty"`
	IsBot         bool      `json:"is_bot"`
	BotDifficulty string    `json:"bot_difficulty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Turn represents one simultaneous-movement turn of a game.
type Turn struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Year        int             `json:"year"`
	Season      string          `json:"season"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Report      json.RawMessage `json:"report,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Order represents an order submitted during a turn.
type Order struct {
	ID            string    `json:"id"`
	TurnID        string    `json:"turn_id"`
	Faction       string    `json:"faction"`
	UnitID        string    `json:"unit_id"`
	Location      string    `json:"location"`
	OrderType     string    `json:"order_type"`
	Target        string    `json:"target,omitempty"`
	SupportLoc    string    `json:"support_loc,omitempty"`
	SupportTarget string    `json:"support_target,omitempty"`
	Result        string    `json:"result,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
