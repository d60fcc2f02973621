//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ewagner/gentle-conquest/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func TestGameStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-1"

	state := json.RawMessage(`{"year":1,"season":"spring","units":[{"id":"aldren-1","faction":"aldren","type":"land","province":"nor"}]}`)

	if err := c.SetGameState(ctx, gameID, state); err != nil {
		t.Fatalf("set game state: %v", err)
	}

	got, err := c.GetGameState(ctx, gameID)
	if err != nil {
		t.Fatalf("get game state: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil state")
	}

	var original, fetched map[string]any
	json.Unmarshal(state, &original)
	json.Unmarshal(got, &fetched)
	if fetched["year"].(float64) != 1 {
		t.Fatalf("state round-trip failed: %s", string(got))
	}
}

func TestGameStateNotFound(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	got, err := c.GetGameState(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing game state")
	}
}

func TestOrdersSetAndGet(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-2"

	aldrenOrders := json.RawMessage(`[{"kind":"hold","location":"nor"}]`)
	berynOrders := json.RawMessage(`[{"kind":"move","location":"tor","target":"vys"}]`)

	c.SetOrders(ctx, gameID, "aldren", aldrenOrders)
	c.SetOrders(ctx, gameID, "beryn", berynOrders)

	got, err := c.GetOrders(ctx, gameID, "aldren")
	if err != nil {
		t.Fatalf("get orders: %v", err)
	}
	if string(got) != string(aldrenOrders) {
		t.Fatalf("expected %s, got %s", aldrenOrders, got)
	}

	// Missing faction returns nil
	missing, err := c.GetOrders(ctx, gameID, "corvath")
	if err != nil {
		t.Fatalf("get missing orders: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for faction with no orders")
	}
}

func TestGetAllOrders(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-3"

	c.SetOrders(ctx, gameID, "aldren", json.RawMessage(`[{"kind":"hold"}]`))
	c.SetOrders(ctx, gameID, "beryn", json.RawMessage(`[{"kind":"move"}]`))

	factions := []string{"aldren", "beryn", "corvath"}
	all, err := c.GetAllOrders(ctx, gameID, factions)
	if err != nil {
		t.Fatalf("get all orders: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 factions with orders, got %d", len(all))
	}
	if _, ok := all["aldren"]; !ok {
		t.Fatal("expected aldren in results")
	}
	if _, ok := all["beryn"]; !ok {
		t.Fatal("expected beryn in results")
	}
	if _, ok := all["corvath"]; ok {
		t.Fatal("did not expect corvath in results")
	}
}

func TestReadySetOperations(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-4"

	// Initially empty
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatalf("expected 0 ready, got %d", count)
	}

	c.MarkReady(ctx, gameID, "aldren")
	c.MarkReady(ctx, gameID, "beryn")

	count, _ = c.ReadyCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 ready, got %d", count)
	}

	factions, _ := c.ReadyFactions(ctx, gameID)
	if len(factions) != 2 {
		t.Fatalf("expected 2 ready factions, got %d", len(factions))
	}

	// Mark same faction again - idempotent
	c.MarkReady(ctx, gameID, "aldren")
	count, _ = c.ReadyCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 ready after duplicate, got %d", count)
	}

	c.UnmarkReady(ctx, gameID, "aldren")
	count, _ = c.ReadyCount(ctx, gameID)
	if count != 1 {
		t.Fatalf("expected 1 ready after unmark, got %d", count)
	}
}

func TestTimerWithTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5"

	deadline := time.Now().Add(10 * time.Second)
	if err := c.SetTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer: %v", err)
	}

	// Verify key exists with a TTL (deadline + grace period)
	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 16*time.Second {
		t.Fatalf("expected TTL ~15s, got %v", ttl)
	}

	c.ClearTimer(ctx, gameID)
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer key to be deleted")
	}
}

func TestTimerPastDeadline(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5b"

	// Deadline further in the past than the grace period gets the minimum 1s TTL
	deadline := time.Now().Add(-10 * time.Second)
	if err := c.SetTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer past deadline: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("expected TTL ~1s for past deadline, got %v", ttl)
	}
}

func TestClearTurnData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-6"
	factions := []string{"aldren", "beryn"}

	// Set up state, orders, ready, timer
	c.SetGameState(ctx, gameID, json.RawMessage(`{"year":1}`))
	c.SetOrders(ctx, gameID, "aldren", json.RawMessage(`[]`))
	c.SetOrders(ctx, gameID, "beryn", json.RawMessage(`[]`))
	c.MarkReady(ctx, gameID, "aldren")
	c.SetTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.ClearTurnData(ctx, gameID, factions); err != nil {
		t.Fatalf("clear turn data: %v", err)
	}

	// Orders, ready, timer should be gone
	al, _ := c.GetOrders(ctx, gameID, "aldren")
	if al != nil {
		t.Fatal("expected aldren orders cleared")
	}
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatal("expected ready cleared")
	}
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer cleared")
	}

	// State should still exist
	state, _ := c.GetGameState(ctx, gameID)
	if state == nil {
		t.Fatal("expected game state to survive ClearTurnData")
	}
}

func TestDeleteGameData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-7"
	factions := []string{"aldren", "beryn"}

	c.SetGameState(ctx, gameID, json.RawMessage(`{"year":1}`))
	c.SetOrders(ctx, gameID, "aldren", json.RawMessage(`[]`))
	c.MarkReady(ctx, gameID, "aldren")
	c.SetTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.DeleteGameData(ctx, gameID, factions); err != nil {
		t.Fatalf("delete game data: %v", err)
	}

	// Everything should be gone including state
	state, _ := c.GetGameState(ctx, gameID)
	if state != nil {
		t.Fatal("expected game state deleted")
	}
	al, _ := c.GetOrders(ctx, gameID, "aldren")
	if al != nil {
		t.Fatal("expected orders deleted")
	}
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatal("expected ready deleted")
	}
}
