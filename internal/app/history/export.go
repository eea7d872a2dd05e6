package history

import (
	"context"
	"errors"
	"strings"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/gamestate"
)

var ErrInvalidRequest = errors.New("invalid history request")

type ExportUseCase struct {
	Games   ports.GameRepository
	Battles ports.BattleRepository
}

// Execute returns the roster and the resolved battles of a game. A pending
// proposal is left out.
func (u ExportUseCase) Execute(ctx context.Context, req ExportRequest) (ExportResponse, error) {
	gameID := strings.TrimSpace(req.GameID)
	if gameID == "" {
		return ExportResponse{}, ErrInvalidRequest
	}
	game, err := u.Games.Get(ctx, gameID)
	if err != nil {
		return ExportResponse{}, err
	}
	records, err := u.Battles.ListByGameID(ctx, gameID)
	if err != nil {
		return ExportResponse{}, err
	}
	events, _, err := gamestate.SplitLog(records)
	if err != nil {
		return ExportResponse{}, err
	}
	return ExportResponse{GameID: game.ID, Agents: game.Agents, Battles: events}, nil
}
