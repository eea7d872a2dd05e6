package memory

import (
	"context"
	"slices"

	"imperialism/internal/app/ports"
)

type GameRepo struct {
	store *Store
}

func NewGameRepo(store *Store) GameRepo {
	return GameRepo{store: store}
}

func (r GameRepo) Create(ctx context.Context, game ports.GameRecord) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.games[game.ID]; exists {
			return ports.ErrConflict
		}
		game.Agents = slices.Clone(game.Agents)
		r.store.games[game.ID] = game
		return nil
	})
}

func (r GameRepo) Get(ctx context.Context, gameID string) (ports.GameRecord, error) {
	var (
		game ports.GameRecord
		ok   bool
	)
	r.store.read(ctx, func() {
		game, ok = r.store.games[gameID]
	})
	if !ok {
		return ports.GameRecord{}, ports.ErrNotFound
	}
	game.Agents = slices.Clone(game.Agents)
	return game, nil
}

func (r GameRepo) SaveVersion(ctx context.Context, gameID string, expectedVersion, next int64) error {
	return r.store.write(ctx, func() error {
		game, ok := r.store.games[gameID]
		if !ok {
			return ports.ErrNotFound
		}
		if game.Version != expectedVersion {
			return ports.ErrConflict
		}
		game.Version = next
		r.store.games[gameID] = game
		return nil
	})
}
