package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state.
func stateKey(gameID string) string           { return "game:" + gameID + ":state" }
func ordersKey(gameID, faction string) string { return "game:" + gameID + ":orders:" + faction }
func readyKey(gameID string) string           { return "game:" + gameID + ":ready" }
func timerKey(gameID string) string           { return "game:" + gameID + ":timer" }

// SetGameState stores the live game state JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetGameState retrieves the live game state JSON.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetOrders stores a faction's orders for the current turn.
func (c *Client) SetOrders(ctx context.Context, gameID, faction string, orders json.RawMessage) error {
	return c.rdb.Set(ctx, ordersKey(gameID, faction), []byte(orders), 0).Err()
}

// GetOrders retrieves a faction's submitted orders.
func (c *Client) GetOrders(ctx context.Context, gameID, faction string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, ordersKey(gameID, faction)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return json.RawMessage(data), nil
}

// GetAllOrders retrieves orders from all factions that have submitted.
func (c *Client) GetAllOrders(ctx context.Context, gameID string, factions []string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage)
	for _, faction := range factions {
		data, err := c.GetOrders(ctx, gameID, faction)
		if err != nil {
			return nil, err
		}
		if data != nil {
			result[faction] = data
		}
	}
	return result, nil
}

// MarkReady adds a faction to the ready set for the game.
func (c *Client) MarkReady(ctx context.Context, gameID, faction string) error {
	return c.rdb.SAdd(ctx, readyKey(gameID), faction).Err()
}

// UnmarkReady removes a faction from the ready set.
func (c *Client) UnmarkReady(ctx context.Context, gameID, faction string) error {
	return c.rdb.SRem(ctx, readyKey(gameID), faction).Err()
}

// ReadyCount returns how many factions have marked ready.
func (c *Client) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, readyKey(gameID)).Result()
}

// ReadyFactions returns the set of factions that have marked ready.
func (c *Client) ReadyFactions(ctx context.Context, gameID string) ([]string, error) {
	return c.rdb.SMembers(ctx, readyKey(gameID)).Result()
}

// turnGracePeriod is the extra time after the displayed deadline before
// turn resolution triggers, giving players a few seconds of leeway.
const turnGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires,
// Redis keyspace notifications trigger turn resolution.
// The TTL includes a grace period so the key expires slightly after the displayed deadline.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// ClearTurnData removes all orders, ready status, and timer for a game.
// Called after turn resolution to prepare for the next turn.
func (c *Client) ClearTurnData(ctx context.Context, gameID string, factions []string) error {
	keys := []string{readyKey(gameID), timerKey(gameID)}
	for _, faction := range factions {
		keys = append(keys, ordersKey(gameID, faction))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, factions []string) error {
	keys := []string{stateKey(gameID), readyKey(gameID), timerKey(gameID)}
	for _, faction := range factions {
		keys = append(keys, ordersKey(gameID, faction))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
