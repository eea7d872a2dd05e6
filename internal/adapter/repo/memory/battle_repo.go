package memory

import (
	"context"
	"slices"
	"time"

	"imperialism/internal/app/ports"
	"imperialism/internal/domain/territory"
)

type BattleRepo struct {
	store *Store
}

func NewBattleRepo(store *Store) BattleRepo {
	return BattleRepo{store: store}
}

func (r BattleRepo) Append(ctx context.Context, gameID string, battles []ports.BattleRecord) error {
	if len(battles) == 0 {
		return nil
	}
	return r.store.write(ctx, func() error {
		list := r.store.battles[gameID]
		for _, b := range battles {
			if b.Seq != len(list)+1 {
				return ports.ErrConflict
			}
			list = append(list, b)
		}
		r.store.battles[gameID] = list
		return nil
	})
}

func (r BattleRepo) Resolve(ctx context.Context, gameID string, seq int, winner territory.AgentID, resolvedAt time.Time) error {
	return r.store.write(ctx, func() error {
		list := r.store.battles[gameID]
		if seq < 1 || seq > len(list) {
			return ports.ErrNotFound
		}
		b := list[seq-1]
		if b.Winner != "" {
			return ports.ErrConflict
		}
		b.Winner = winner
		at := resolvedAt
		b.ResolvedAt = &at
		list[seq-1] = b
		return nil
	})
}

func (r BattleRepo) DeletePending(ctx context.Context, gameID string) error {
	return r.store.write(ctx, func() error {
		list := r.store.battles[gameID]
		if n := len(list); n > 0 && list[n-1].Winner == "" {
			r.store.battles[gameID] = list[:n-1]
		}
		return nil
	})
}

func (r BattleRepo) ListByGameID(ctx context.Context, gameID string) ([]ports.BattleRecord, error) {
	var out []ports.BattleRecord
	r.store.read(ctx, func() {
		out = slices.Clone(r.store.battles[gameID])
	})
	return out, nil
}
