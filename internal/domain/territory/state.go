package territory

import (
	"fmt"
	"maps"
	"sort"
)

// State maps every entity of the universe to exactly one agent.
//
// A State is a value: Transfer returns a new State and never touches the
// receiver, so a failed mutation can never leave partial ownership behind.
type State struct {
	owners map[EntityID]AgentID
}

// NewState copies ownership into a State. Callers are responsible for
// coverage of their universe; the partitioner and the conquest engine are the
// only producers.
func NewState(ownership map[EntityID]AgentID) State {
	return State{owners: maps.Clone(ownership)}
}

func (s State) Len() int { return len(s.owners) }

func (s State) Owner(id EntityID) (AgentID, error) {
	a, ok := s.owners[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	return a, nil
}

func (s State) Contains(id EntityID) bool {
	_, ok := s.owners[id]
	return ok
}

func (s State) Count(agent AgentID) int {
	n := 0
	for _, owner := range s.owners {
		if owner == agent {
			n++
		}
	}
	return n
}

func (s State) Counts() map[AgentID]int {
	out := map[AgentID]int{}
	for _, owner := range s.owners {
		out[owner]++
	}
	return out
}

// Entities returns the entities owned by agent, sorted.
func (s State) Entities(agent AgentID) []EntityID {
	out := make([]EntityID, 0)
	for id, owner := range s.owners {
		if owner == agent {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Active reports whether agent owns at least one entity. It is always derived,
// never stored.
func (s State) Active(agent AgentID) bool {
	for _, owner := range s.owners {
		if owner == agent {
			return true
		}
	}
	return false
}

// ActiveAgents returns the agents owning territory, in roster order.
func (s State) ActiveAgents(r Roster) []AgentID {
	counts := s.Counts()
	out := make([]AgentID, 0, len(counts))
	for _, id := range r.IDs() {
		if counts[id] > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sole returns the single owner when one agent holds every entity.
func (s State) Sole() (AgentID, bool) {
	var sole AgentID
	for _, owner := range s.owners {
		if sole == "" {
			sole = owner
			continue
		}
		if owner != sole {
			return "", false
		}
	}
	return sole, sole != ""
}

// Transfer moves every entity owned by loser to winner.
func (s State) Transfer(loser, winner AgentID) State {
	next := make(map[EntityID]AgentID, len(s.owners))
	for id, owner := range s.owners {
		if owner == loser {
			owner = winner
		}
		next[id] = owner
	}
	return State{owners: next}
}

func (s State) Ownership() map[EntityID]AgentID {
	return maps.Clone(s.owners)
}

func (s State) Equal(other State) bool {
	return maps.Equal(s.owners, other.owners)
}
