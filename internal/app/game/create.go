package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"
)

var ErrInvalidRequest = errors.New("invalid game request")

type CreateUseCase struct {
	Games    ports.GameRepository
	Universe universe.Universe
	Now      func() time.Time
	NewID    func() string
	Color    func() string
}

func (u CreateUseCase) Execute(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	if len(req.Agents) == 0 {
		return CreateResponse{}, ErrInvalidRequest
	}
	nowFn := u.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	newID := u.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	color := u.Color
	if color == nil {
		color = RandomColor
	}

	agents := make([]territory.Agent, 0, len(req.Agents))
	for _, in := range req.Agents {
		c := strings.TrimSpace(in.Color)
		if c == "" {
			c = color()
		}
		agents = append(agents, territory.Agent{
			ID:    territory.AgentID(newID()),
			Name:  strings.TrimSpace(in.Name),
			Lat:   in.Lat,
			Lon:   in.Lon,
			Color: c,
		})
	}
	roster, err := territory.NewRoster(agents)
	if err != nil {
		return CreateResponse{}, err
	}
	initial, err := geo.BuildPartition(roster, u.Universe.Entities)
	if err != nil {
		return CreateResponse{}, err
	}

	record := ports.GameRecord{
		ID:        newID(),
		Agents:    roster.Agents(),
		Version:   1,
		CreatedAt: nowFn().UTC(),
	}
	if err := u.Games.Create(ctx, record); err != nil {
		return CreateResponse{}, fmt.Errorf("create game: %w", err)
	}
	return CreateResponse{
		GameID:  record.ID,
		Version: record.Version,
		Agents:  agentStatuses(roster, initial),
		Outcome: conquest.Evaluate(roster, initial, u.Universe.Graph),
	}, nil
}

// RandomColor returns an rgb() display colour with every channel in [50, 255].
func RandomColor() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", 50+rand.Intn(206), 50+rand.Intn(206), 50+rand.Intn(206))
}
