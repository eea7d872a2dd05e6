package gamestate

import (
	"context"
	"fmt"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"
)

// Loaded is a game rebuilt from storage. The territory is never read from
// storage: it is the replay of the persisted log over the recomputed initial
// partition.
type Loaded struct {
	Game       ports.GameRecord
	Roster     territory.Roster
	Initial    territory.State
	Engine     *conquest.Engine
	Battles    []ports.BattleRecord
	PendingSeq int
}

func (l Loaded) NextSeq() int { return len(l.Battles) + 1 }

func Load(ctx context.Context, games ports.GameRepository, battles ports.BattleRepository, u universe.Universe, gameID string, rnd conquest.Rand) (Loaded, error) {
	game, err := games.Get(ctx, gameID)
	if err != nil {
		return Loaded{}, err
	}
	roster, err := territory.NewRoster(game.Agents)
	if err != nil {
		return Loaded{}, err
	}
	initial, err := geo.BuildPartition(roster, u.Entities)
	if err != nil {
		return Loaded{}, err
	}
	records, err := battles.ListByGameID(ctx, gameID)
	if err != nil {
		return Loaded{}, err
	}
	events, pending, err := SplitLog(records)
	if err != nil {
		return Loaded{}, err
	}
	engine, err := conquest.Resume(roster, initial, u.Graph, rnd, events)
	if err != nil {
		return Loaded{}, fmt.Errorf("game %s: %w", gameID, err)
	}
	out := Loaded{
		Game:    game,
		Roster:  roster,
		Initial: initial,
		Engine:  engine,
		Battles: records,
	}
	if pending != nil {
		if err := engine.Restore(conquest.BattleEvent{Attacker: pending.Attacker, Defender: pending.Defender}); err != nil {
			return Loaded{}, fmt.Errorf("game %s: %w", gameID, err)
		}
		out.PendingSeq = pending.Seq
	}
	return out, nil
}

// SplitLog separates resolved events from the trailing pending record.
func SplitLog(records []ports.BattleRecord) ([]conquest.BattleEvent, *ports.BattleRecord, error) {
	events := make([]conquest.BattleEvent, 0, len(records))
	var pending *ports.BattleRecord
	for i, r := range records {
		if r.Seq != i+1 {
			return nil, nil, fmt.Errorf("%w: battle %d has seq %d", conquest.ErrMalformedLog, i+1, r.Seq)
		}
		if r.Winner == "" {
			if i != len(records)-1 {
				return nil, nil, fmt.Errorf("%w: pending battle %d is not last", conquest.ErrMalformedLog, r.Seq)
			}
			rec := r
			pending = &rec
			continue
		}
		events = append(events, conquest.BattleEvent{Attacker: r.Attacker, Defender: r.Defender, Winner: r.Winner})
	}
	return events, pending, nil
}
