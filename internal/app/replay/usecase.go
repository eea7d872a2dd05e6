package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/gamestate"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"
)

var ErrInvalidRequest = errors.New("invalid replay request")

// UseCase rebuilds the ownership history of a game from its resolved
// battles. A pending proposal is not part of the history.
type UseCase struct {
	Games    ports.GameRepository
	Battles  ports.BattleRepository
	Universe universe.Universe
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" || req.FromStep < 0 {
		return Response{}, ErrInvalidRequest
	}
	game, err := u.Games.Get(ctx, gameID)
	if err != nil {
		return Response{}, err
	}
	roster, err := territory.NewRoster(game.Agents)
	if err != nil {
		return Response{}, err
	}
	initial, err := geo.BuildPartition(roster, u.Universe.Entities)
	if err != nil {
		return Response{}, err
	}
	records, err := u.Battles.ListByGameID(ctx, gameID)
	if err != nil {
		return Response{}, err
	}
	events, _, err := gamestate.SplitLog(records)
	if err != nil {
		return Response{}, err
	}
	snaps, err := conquest.Replay(roster, initial, events)
	if err != nil {
		return Response{}, fmt.Errorf("game %s: %w", gameID, err)
	}

	from, to := req.FromStep, req.ToStep
	if to <= 0 || to > len(events) {
		to = len(events)
	}
	if from > to {
		return Response{}, fmt.Errorf("%w: from step %d after to step %d", ErrInvalidRequest, from, to)
	}

	out := Response{
		GameID: gameID,
		Agents: roster.Agents(),
		Steps:  len(events),
		Frames: make([]Frame, 0, to-from+1),
	}
	for step := from; step <= to; step++ {
		out.Frames = append(out.Frames, frame(roster, snaps[step], events, step, req.IncludeOwnership))
	}
	return out, nil
}

func frame(roster territory.Roster, snap territory.State, events []conquest.BattleEvent, step int, withOwnership bool) Frame {
	f := Frame{
		Step:   step,
		Counts: snap.Counts(),
		Active: snap.ActiveAgents(roster),
	}
	if step > 0 {
		ev := events[step-1]
		f.Battle = &ev
	}
	if withOwnership {
		f.Ownership = snap.Ownership()
	}
	return f
}
