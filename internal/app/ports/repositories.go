package ports

import (
	"context"
	"time"

	"imperialism/internal/domain/territory"
)

type GameRecord struct {
	ID        string
	Agents    []territory.Agent
	Version   int64
	CreatedAt time.Time
}

// BattleRecord is one row of a game's battle log. Seq starts at 1. An empty
// Winner marks the single pending battle, which can only be the last row.
type BattleRecord struct {
	Seq        int
	Attacker   territory.AgentID
	Defender   territory.AgentID
	Winner     territory.AgentID
	ProposedAt time.Time
	ResolvedAt *time.Time
}

type GameRepository interface {
	Create(ctx context.Context, game GameRecord) error
	Get(ctx context.Context, gameID string) (GameRecord, error)
	// SaveVersion moves the game from expectedVersion to next, failing with
	// ErrConflict when another writer got there first.
	SaveVersion(ctx context.Context, gameID string, expectedVersion, next int64) error
}

type BattleRepository interface {
	Append(ctx context.Context, gameID string, battles []BattleRecord) error
	Resolve(ctx context.Context, gameID string, seq int, winner territory.AgentID, resolvedAt time.Time) error
	DeletePending(ctx context.Context, gameID string) error
	ListByGameID(ctx context.Context, gameID string) ([]BattleRecord, error)
}
