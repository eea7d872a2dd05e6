package conquest

import (
	"errors"
	"testing"

	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/territory"
)

func threeAgentGame(t *testing.T) (territory.Roster, territory.State) {
	t.Helper()
	roster, err := territory.NewRoster([]territory.Agent{
		{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"},
	})
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	return roster, territory.NewState(map[territory.EntityID]territory.AgentID{
		"1": "a", "2": "b", "3": "b", "4": "c",
	})
}

func TestReplay_EmptyLogReturnsInitialOnly(t *testing.T) {
	roster, initial := threeAgentGame(t)
	snaps, err := Replay(roster, initial, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(snaps) != 1 || !snaps[0].Equal(initial) {
		t.Fatalf("expected exactly [initial], got %d snapshots", len(snaps))
	}
}

func TestReplay_IsPureAndRepeatable(t *testing.T) {
	roster, initial := threeAgentGame(t)
	events := []BattleEvent{
		{Attacker: "a", Defender: "b", Winner: "b"},
		{Attacker: "c", Defender: "b", Winner: "c"},
	}
	first, err := Replay(roster, initial, events)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	second, err := Replay(roster, initial, events)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 snapshots, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("replay not repeatable at step %d", i)
		}
	}
	if sole, ok := first[2].Sole(); !ok || sole != "c" {
		t.Fatalf("expected c to own everything, got %q ok=%v", sole, ok)
	}
	if got := first[1].Count("b"); got != 3 {
		t.Fatalf("expected b to own 3 after first battle, got %d", got)
	}
	if !first[0].Equal(initial) {
		t.Fatalf("initial snapshot altered")
	}
}

func TestReplay_MalformedLogs(t *testing.T) {
	roster, initial := threeAgentGame(t)
	cases := map[string][]BattleEvent{
		"unknown agent":  {{Attacker: "a", Defender: "x", Winner: "a"}},
		"foreign winner": {{Attacker: "a", Defender: "b", Winner: "c"}},
		"pending event":  {{Attacker: "a", Defender: "b"}},
		"self battle":    {{Attacker: "a", Defender: "a", Winner: "a"}},
		"inactive loser": {{Attacker: "a", Defender: "b", Winner: "a"}, {Attacker: "c", Defender: "b", Winner: "c"}},
		"after terminal": {{Attacker: "a", Defender: "b", Winner: "a"}, {Attacker: "a", Defender: "c", Winner: "a"}, {Attacker: "a", Defender: "c", Winner: "c"}},
	}
	for name, events := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Replay(roster, initial, events); !errors.Is(err, ErrMalformedLog) {
				t.Fatalf("expected ErrMalformedLog, got %v", err)
			}
		})
	}
}

func TestCheckAdjacency_FlagsNonBorderingBattle(t *testing.T) {
	roster, initial := threeAgentGame(t)
	// 1 - 2 - 3 - 4: a borders b, b borders c, a never borders c directly.
	graph := adjacency.Build([]territory.EntityID{"1", "2", "3", "4"}, []adjacency.Pair{
		{Entity: "1", Neighbor: "2"}, {Entity: "2", Neighbor: "3"}, {Entity: "3", Neighbor: "4"},
	})
	events := []BattleEvent{{Attacker: "a", Defender: "c", Winner: "a"}}
	snaps, err := Replay(roster, initial, events)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if err := CheckAdjacency(graph, snaps, events); !errors.Is(err, ErrMalformedLog) {
		t.Fatalf("expected ErrMalformedLog, got %v", err)
	}
}

func TestNewLog_RejectsUnresolvedEvents(t *testing.T) {
	if _, err := NewLog([]BattleEvent{{Attacker: "a", Defender: "b"}}); !errors.Is(err, ErrMalformedLog) {
		t.Fatalf("expected ErrMalformedLog, got %v", err)
	}
}
