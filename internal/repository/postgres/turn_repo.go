package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewagner/gentle-conquest/internal/model"
)

// TurnRepo handles turn and order database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateTurn inserts a new turn.
func (r *TurnRepo) CreateTurn(ctx context.Context, gameID string, year int, season string, stateBefore json.RawMessage, deadline time.Time) (*model.Turn, error) {
	var t model.Turn
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (game_id, year, season, state_before, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, game_id, year, season, state_before, deadline, created_at`,
		gameID, year, season, stateBefore, deadline,
	).Scan(&t.ID, &t.GameID, &t.Year, &t.Season, &t.StateBefore, &t.Deadline, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// CurrentTurn returns the latest unresolved turn for a game.
func (r *TurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error) {
	var t model.Turn
	var stateAfter, report sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, year, season, state_before, state_after, report, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, gameID,
	).Scan(&t.ID, &t.GameID, &t.Year, &t.Season, &t.StateBefore, &stateAfter, &report, &t.Deadline, &t.ResolvedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current turn: %w", err)
	}
	if stateAfter.Valid {
		t.StateAfter = json.RawMessage(stateAfter.String)
	}
	if report.Valid {
		t.Report = json.RawMessage(report.String)
	}
	return &t, nil
}

// ListTurns returns all turns for a game in chronological order.
func (r *TurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, year, season, state_before, state_after, report, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1
		 ORDER BY year,
		   CASE season WHEN 'spring' THEN 1 WHEN 'fall' THEN 2 ELSE 3 END`, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		var stateAfter, report sql.NullString
		if err := rows.Scan(&t.ID, &t.GameID, &t.Year, &t.Season, &t.StateBefore, &stateAfter, &report, &t.Deadline, &t.ResolvedAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if stateAfter.Valid {
			t.StateAfter = json.RawMessage(stateAfter.String)
		}
		if report.Valid {
			t.Report = json.RawMessage(report.String)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ResolveTurn marks a turn as resolved, storing the resulting state and the
// adjudication report.
func (r *TurnRepo) ResolveTurn(ctx context.Context, turnID string, stateAfter, report json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE turns SET state_after = $1, report = $2, resolved_at = now() WHERE id = $3`,
		stateAfter, report, turnID,
	)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	return nil
}

// SaveOrders inserts a batch of orders for a turn.
func (r *TurnRepo) SaveOrders(ctx context.Context, orders []model.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO orders (turn_id, faction, unit_id, location, order_type, target, support_loc, support_target, result)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("prepare insert order: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		_, err := stmt.ExecContext(ctx, o.TurnID, o.Faction, o.UnitID, o.Location, o.OrderType,
			nullStr(o.Target), nullStr(o.SupportLoc), nullStr(o.SupportTarget), nullStr(o.Result))
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}
	return tx.Commit()
}

// OrdersByTurn returns all orders for a turn.
func (r *TurnRepo) OrdersByTurn(ctx context.Context, turnID string) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, turn_id, faction, unit_id, location, order_type, target, support_loc, support_target, result, created_at
		 FROM orders WHERE turn_id = $1 ORDER BY faction, location`, turnID,
	)
	if err != nil {
		return nil, fmt.Errorf("orders by turn: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var target, supportLoc, supportTarget, result sql.NullString
		if err := rows.Scan(&o.ID, &o.TurnID, &o.Faction, &o.UnitID, &o.Location, &o.OrderType,
			&target, &supportLoc, &supportTarget, &result, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Target = target.String
		o.SupportLoc = supportLoc.String
		o.SupportTarget = supportTarget.String
		o.Result = result.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListExpired returns the latest unresolved turn per game where the deadline has passed.
// Uses DISTINCT ON to avoid returning orphaned old turns from previous race conditions.
func (r *TurnRepo) ListExpired(ctx context.Context) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (t.game_id) t.id, t.game_id, t.year, t.season, t.state_before, t.deadline, t.created_at
		 FROM turns t
		 JOIN games g ON g.id = t.game_id
		 WHERE t.resolved_at IS NULL AND t.deadline < now() AND g.status = 'active'
		 ORDER BY t.game_id, t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.GameID, &t.Year, &t.Season, &t.StateBefore, &t.Deadline, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
