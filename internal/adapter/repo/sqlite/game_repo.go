package sqliterepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"imperialism/internal/app/ports"
	"imperialism/internal/domain/territory"
)

type gameRow struct {
	ID        string `db:"id"`
	Agents    string `db:"agents"`
	Version   int64  `db:"version"`
	CreatedAt string `db:"created_at"`
}

type GameRepo struct {
	db *DB
}

func NewGameRepo(db *DB) GameRepo {
	return GameRepo{db: db}
}

func (r GameRepo) Create(ctx context.Context, game ports.GameRecord) error {
	agents, err := json.Marshal(game.Agents)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	_, err = r.db.q(ctx).ExecContext(ctx,
		`INSERT INTO games (id, agents, version, created_at) VALUES (?, ?, ?, ?)`,
		game.ID, string(agents), game.Version, game.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isConstraint(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r GameRepo) Get(ctx context.Context, gameID string) (ports.GameRecord, error) {
	var row gameRow
	err := r.db.q(ctx).GetContext(ctx, &row, `SELECT id, agents, version, created_at FROM games WHERE id = ?`, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.GameRecord{}, ports.ErrNotFound
		}
		return ports.GameRecord{}, err
	}
	var agents []territory.Agent
	if err := json.Unmarshal([]byte(row.Agents), &agents); err != nil {
		return ports.GameRecord{}, fmt.Errorf("decode roster of game %s: %w", gameID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("decode created_at of game %s: %w", gameID, err)
	}
	return ports.GameRecord{ID: row.ID, Agents: agents, Version: row.Version, CreatedAt: createdAt}, nil
}

func (r GameRepo) SaveVersion(ctx context.Context, gameID string, expectedVersion, next int64) error {
	res, err := r.db.q(ctx).ExecContext(ctx, `UPDATE games SET version = ? WHERE id = ? AND version = ?`, next, gameID, expectedVersion)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	var count int
	if err := r.db.q(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM games WHERE id = ?`, gameID); err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrConflict
}

// isConstraint reports a UNIQUE, PRIMARY KEY or CHECK violation.
func isConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
