package conquest

import (
	"fmt"
	"slices"

	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/territory"
)

// Replay reconstructs the ownership history: one snapshot before any event and
// one after each event, in log order. It reads nothing but its arguments.
func Replay(roster territory.Roster, initial territory.State, events []BattleEvent) ([]territory.State, error) {
	out := make([]territory.State, 0, len(events)+1)
	cur := initial
	out = append(out, cur)
	for i, e := range events {
		if _, done := cur.Sole(); done {
			return nil, fmt.Errorf("%w: event %d after terminal state", ErrMalformedLog, i)
		}
		if !roster.Contains(e.Attacker) || !roster.Contains(e.Defender) {
			return nil, fmt.Errorf("%w: event %d names unknown agent (%s vs %s)", ErrMalformedLog, i, e.Attacker, e.Defender)
		}
		if e.Attacker == e.Defender {
			return nil, fmt.Errorf("%w: event %d is a self battle", ErrMalformedLog, i)
		}
		loser, ok := e.Loser()
		if !ok {
			return nil, fmt.Errorf("%w: event %d winner %q is not a side", ErrMalformedLog, i, e.Winner)
		}
		if !cur.Active(e.Attacker) || !cur.Active(e.Defender) {
			return nil, fmt.Errorf("%w: event %d involves an agent without territory", ErrMalformedLog, i)
		}
		cur = cur.Transfer(loser, e.Winner)
		out = append(out, cur)
	}
	return out, nil
}

// CheckAdjacency reports the first event whose sides did not border each
// other in the snapshot it was fought from. snaps must come from Replay over
// the same events.
func CheckAdjacency(graph *adjacency.Graph, snaps []territory.State, events []BattleEvent) error {
	if len(snaps) != len(events)+1 {
		return fmt.Errorf("%w: %d snapshots for %d events", ErrMalformedLog, len(snaps), len(events))
	}
	for i, e := range events {
		if !slices.Contains(graph.AgentNeighbors(e.Attacker, snaps[i]), e.Defender) {
			return fmt.Errorf("%w: event %d: %s does not border %s", ErrMalformedLog, i, e.Defender, e.Attacker)
		}
	}
	return nil
}
