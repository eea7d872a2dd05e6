package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"imperialism/internal/app/game"
	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"
)

type ImportUseCase struct {
	TxManager ports.TxManager
	Games     ports.GameRepository
	Battles   ports.BattleRepository
	Universe  universe.Universe
	Now       func() time.Time
	NewID     func() string
	// Color paints agents imported without one. Defaults to game.RandomColor.
	Color func() string
}

// Execute replays the imported log over the partition of the imported roster
// and stores it as a new game. Nothing is stored when the log does not replay.
func (u ImportUseCase) Execute(ctx context.Context, req ImportRequest) (ImportResponse, error) {
	if len(req.Agents) == 0 {
		return ImportResponse{}, ErrInvalidRequest
	}
	newID := u.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := time.Now().UTC()
	if u.Now != nil {
		now = u.Now().UTC()
	}

	color := u.Color
	if color == nil {
		color = game.RandomColor
	}

	agents := make([]territory.Agent, 0, len(req.Agents))
	for _, a := range req.Agents {
		a.Name = strings.TrimSpace(a.Name)
		if strings.TrimSpace(string(a.ID)) == "" {
			a.ID = territory.AgentID(newID())
		}
		if a.Color = strings.TrimSpace(a.Color); a.Color == "" {
			a.Color = color()
		}
		agents = append(agents, a)
	}
	roster, err := territory.NewRoster(agents)
	if err != nil {
		return ImportResponse{}, err
	}
	events, err := resolveRefs(roster, req.Battles)
	if err != nil {
		return ImportResponse{}, err
	}
	initial, err := geo.BuildPartition(roster, u.Universe.Entities)
	if err != nil {
		return ImportResponse{}, err
	}
	snaps, err := conquest.Replay(roster, initial, events)
	if err != nil {
		return ImportResponse{}, err
	}
	if req.Strict {
		if err := conquest.CheckAdjacency(u.Universe.Graph, snaps, events); err != nil {
			return ImportResponse{}, err
		}
	}

	record := ports.GameRecord{
		ID:        newID(),
		Agents:    roster.Agents(),
		Version:   1,
		CreatedAt: now,
	}
	battles := make([]ports.BattleRecord, 0, len(events))
	for i, e := range events {
		resolvedAt := now
		battles = append(battles, ports.BattleRecord{
			Seq:        i + 1,
			Attacker:   e.Attacker,
			Defender:   e.Defender,
			Winner:     e.Winner,
			ProposedAt: now,
			ResolvedAt: &resolvedAt,
		})
	}
	err = u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := u.Games.Create(txCtx, record); err != nil {
			return err
		}
		if len(battles) == 0 {
			return nil
		}
		return u.Battles.Append(txCtx, record.ID, battles)
	})
	if err != nil {
		return ImportResponse{}, fmt.Errorf("import game: %w", err)
	}

	final := snaps[len(snaps)-1]
	return ImportResponse{
		GameID:  record.ID,
		Version: record.Version,
		Battles: len(events),
		Counts:  final.Counts(),
		Outcome: conquest.Evaluate(roster, final, u.Universe.Graph),
	}, nil
}

// resolveRefs maps every side and winner to a roster ID. IDs take precedence
// over names.
func resolveRefs(roster territory.Roster, in []conquest.BattleEvent) ([]conquest.BattleEvent, error) {
	byName := make(map[string]territory.AgentID, roster.Len())
	for _, a := range roster.Agents() {
		byName[a.Name] = a.ID
	}
	lookup := func(i int, ref territory.AgentID) (territory.AgentID, error) {
		ref = territory.AgentID(strings.TrimSpace(string(ref)))
		if roster.Contains(ref) {
			return ref, nil
		}
		if id, ok := byName[string(ref)]; ok {
			return id, nil
		}
		return "", fmt.Errorf("%w: event %d names unknown agent %q", conquest.ErrMalformedLog, i, ref)
	}

	out := make([]conquest.BattleEvent, 0, len(in))
	for i, e := range in {
		var (
			ev  conquest.BattleEvent
			err error
		)
		if ev.Attacker, err = lookup(i, e.Attacker); err != nil {
			return nil, err
		}
		if ev.Defender, err = lookup(i, e.Defender); err != nil {
			return nil, err
		}
		if ev.Winner, err = lookup(i, e.Winner); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
