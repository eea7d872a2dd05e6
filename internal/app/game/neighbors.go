package game

import (
	"context"
	"strings"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/gamestate"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/territory"
)

type NeighborsUseCase struct {
	Games    ports.GameRepository
	Battles  ports.BattleRepository
	Universe universe.Universe
}

// AgentNeighbors lists the agents the given agent may legally fight right now.
func (u NeighborsUseCase) AgentNeighbors(ctx context.Context, req AgentNeighborsRequest) (AgentNeighborsResponse, error) {
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" || strings.TrimSpace(string(req.AgentID)) == "" {
		return AgentNeighborsResponse{}, ErrInvalidRequest
	}
	loaded, err := gamestate.Load(ctx, u.Games, u.Battles, u.Universe, req.GameID, readOnlyRand())
	if err != nil {
		return AgentNeighborsResponse{}, err
	}
	ids, err := loaded.Engine.AgentNeighbors(req.AgentID)
	if err != nil {
		return AgentNeighborsResponse{}, err
	}
	out := AgentNeighborsResponse{AgentID: req.AgentID, Neighbors: make([]territory.Agent, 0, len(ids))}
	for _, id := range ids {
		a, err := loaded.Roster.Agent(id)
		if err != nil {
			return AgentNeighborsResponse{}, err
		}
		out.Neighbors = append(out.Neighbors, a)
	}
	return out, nil
}

func (u NeighborsUseCase) EntityNeighbors(_ context.Context, req EntityNeighborsRequest) (EntityNeighborsResponse, error) {
	if strings.TrimSpace(string(req.EntityID)) == "" {
		return EntityNeighborsResponse{}, ErrInvalidRequest
	}
	ids, err := u.Universe.Graph.Neighbors(req.EntityID)
	if err != nil {
		return EntityNeighborsResponse{}, err
	}
	return EntityNeighborsResponse{EntityID: req.EntityID, Neighbors: ids}, nil
}
