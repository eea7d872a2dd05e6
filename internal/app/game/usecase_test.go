package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	datasetmock "imperialism/internal/adapter/dataset/mock"
	"imperialism/internal/adapter/repo/memory"
	"imperialism/internal/app/ports"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/geo"
	"imperialism/internal/domain/territory"
)

func testUniverse(t *testing.T, n int) universe.Universe {
	t.Helper()
	u, err := universe.Load(context.Background(), datasetmock.Grid(n))
	if err != nil {
		t.Fatalf("load universe: %v", err)
	}
	return u
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestCreateUseCase_PartitionsAndPersists(t *testing.T) {
	store := memory.NewStore()
	u := testUniverse(t, 4)
	uc := CreateUseCase{
		Games:    memory.NewGameRepo(store),
		Universe: u,
		Now:      func() time.Time { return time.Unix(1700000000, 0) },
		NewID:    sequentialIDs(),
		Color:    func() string { return "rgb(1, 2, 3)" },
	}
	resp, err := uc.Execute(context.Background(), CreateRequest{Agents: []AgentInput{
		{Name: "Bears", Lat: 0, Lon: 0},
		{Name: "Lions", Lat: 3, Lon: 3, Color: "#0076b6"},
	}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.GameID != "id-3" || resp.Version != 1 {
		t.Fatalf("unexpected game id/version: %s %d", resp.GameID, resp.Version)
	}
	total := 0
	for _, a := range resp.Agents {
		total += a.Entities
		if !a.Active {
			t.Fatalf("expected %s active", a.Name)
		}
	}
	if total != 16 {
		t.Fatalf("expected 16 entities assigned, got %d", total)
	}
	if resp.Agents[0].Color != "rgb(1, 2, 3)" || resp.Agents[1].Color != "#0076b6" {
		t.Fatalf("unexpected colors: %+v", resp.Agents)
	}
	if resp.Outcome != conquest.OutcomeInProgress {
		t.Fatalf("expected in_progress, got %s", resp.Outcome)
	}

	game, err := memory.NewGameRepo(store).Get(context.Background(), resp.GameID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(game.Agents) != 2 || game.Agents[0].ID != "id-1" {
		t.Fatalf("unexpected stored roster: %+v", game.Agents)
	}
}

func TestCreateUseCase_DegenerateRoster(t *testing.T) {
	uc := CreateUseCase{Games: memory.NewGameRepo(memory.NewStore()), Universe: testUniverse(t, 2)}
	_, err := uc.Execute(context.Background(), CreateRequest{Agents: []AgentInput{{Name: "Solo"}}})
	if !errors.Is(err, geo.ErrDegenerateRoster) {
		t.Fatalf("expected ErrDegenerateRoster, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), CreateRequest{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCreateUseCase_DuplicateNames(t *testing.T) {
	uc := CreateUseCase{Games: memory.NewGameRepo(memory.NewStore()), Universe: testUniverse(t, 2)}
	_, err := uc.Execute(context.Background(), CreateRequest{Agents: []AgentInput{{Name: "Bears"}, {Name: "Bears", Lat: 1}}})
	if !errors.Is(err, territory.ErrInvalidRoster) {
		t.Fatalf("expected ErrInvalidRoster, got %v", err)
	}
}

func TestStatusAndNeighbors_FollowTheLog(t *testing.T) {
	store := memory.NewStore()
	games := memory.NewGameRepo(store)
	battles := memory.NewBattleRepo(store)
	u := testUniverse(t, 3)
	ctx := context.Background()

	if err := games.Create(ctx, ports.GameRecord{ID: "g1", Version: 3, Agents: []territory.Agent{
		{ID: "a", Name: "A", Lat: 0, Lon: 0},
		{ID: "b", Name: "B", Lat: 2, Lon: 2},
	}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := battles.Append(ctx, "g1", []ports.BattleRecord{
		{Seq: 1, Attacker: "a", Defender: "b", Winner: "b"},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	status, err := StatusUseCase{Games: games, Battles: battles, Universe: u}.Execute(ctx, StatusRequest{GameID: "g1", IncludeOwnership: true})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Outcome != conquest.OutcomeConquest || status.Battles != 1 || status.Version != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Agents[0].Active || status.Agents[1].Entities != 9 {
		t.Fatalf("unexpected agent status: %+v", status.Agents)
	}
	if len(status.Ownership) != 9 {
		t.Fatalf("expected 9 owned entities, got %d", len(status.Ownership))
	}

	nb := NeighborsUseCase{Games: games, Battles: battles, Universe: u}
	agentResp, err := nb.AgentNeighbors(ctx, AgentNeighborsRequest{GameID: "g1", AgentID: "b"})
	if err != nil {
		t.Fatalf("AgentNeighbors: %v", err)
	}
	if len(agentResp.Neighbors) != 0 {
		t.Fatalf("expected no neighbors for sole empire, got %+v", agentResp.Neighbors)
	}
	if _, err := nb.AgentNeighbors(ctx, AgentNeighborsRequest{GameID: "g1", AgentID: "zzz"}); !errors.Is(err, territory.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}

	entityResp, err := nb.EntityNeighbors(ctx, EntityNeighborsRequest{EntityID: "00004"})
	if err != nil {
		t.Fatalf("EntityNeighbors: %v", err)
	}
	if len(entityResp.Neighbors) != 4 {
		t.Fatalf("expected centre cell to have 4 neighbors, got %v", entityResp.Neighbors)
	}
	if _, err := nb.EntityNeighbors(ctx, EntityNeighborsRequest{EntityID: "99999"}); !errors.Is(err, territory.ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestStatus_NotFound(t *testing.T) {
	store := memory.NewStore()
	uc := StatusUseCase{Games: memory.NewGameRepo(store), Battles: memory.NewBattleRepo(store), Universe: testUniverse(t, 2)}
	if _, err := uc.Execute(context.Background(), StatusRequest{GameID: "nope"}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), StatusRequest{GameID: " "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
