package game

import (
	"context"
	"math/rand"
	"strings"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/gamestate"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

type StatusUseCase struct {
	Games    ports.GameRepository
	Battles  ports.BattleRepository
	Universe universe.Universe
}

func (u StatusUseCase) Execute(ctx context.Context, req StatusRequest) (StatusResponse, error) {
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" {
		return StatusResponse{}, ErrInvalidRequest
	}
	loaded, err := gamestate.Load(ctx, u.Games, u.Battles, u.Universe, req.GameID, readOnlyRand())
	if err != nil {
		return StatusResponse{}, err
	}
	state := loaded.Engine.Territory()
	resp := StatusResponse{
		GameID:  loaded.Game.ID,
		Version: loaded.Game.Version,
		Agents:  agentStatuses(loaded.Roster, state),
		Battles: len(loaded.Engine.Log()),
		Outcome: loaded.Engine.Outcome(),
	}
	if pending, ok := loaded.Engine.Pending(); ok {
		resp.Pending = &pending
	}
	if req.IncludeOwnership {
		resp.Ownership = state.Ownership()
	}
	return resp, nil
}

func agentStatuses(roster territory.Roster, state territory.State) []AgentStatus {
	counts := state.Counts()
	out := make([]AgentStatus, 0, roster.Len())
	for _, a := range roster.Agents() {
		out = append(out, AgentStatus{Agent: a, Entities: counts[a.ID], Active: counts[a.ID] > 0})
	}
	return out
}

// readOnlyRand feeds engines that are only inspected, never asked to propose.
func readOnlyRand() conquest.Rand {
	return rand.New(rand.NewSource(0))
}
