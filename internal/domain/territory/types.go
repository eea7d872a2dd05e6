package territory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrUnknownAgent  = errors.New("unknown agent")
	ErrInvalidRoster = errors.New("invalid roster")
)

// EntityID is the fixed-width geographic code of a county.
type EntityID string

// AgentID is an opaque, stable agent identifier. Display names never act as keys.
type AgentID string

type Entity struct {
	ID    EntityID `json:"id"`
	Name  string   `json:"name,omitempty"`
	State string   `json:"state,omitempty"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
}

type Agent struct {
	ID    AgentID `json:"id"`
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Color string  `json:"color"`
}

// Roster is the ordered, immutable list of agents in a game. Order matters:
// it drives partition tie-breaks and attacker/defender candidate order.
type Roster struct {
	agents []Agent
	index  map[AgentID]int
}

func NewRoster(agents []Agent) (Roster, error) {
	r := Roster{
		agents: make([]Agent, 0, len(agents)),
		index:  make(map[AgentID]int, len(agents)),
	}
	names := make(map[string]struct{}, len(agents))
	for i, a := range agents {
		if strings.TrimSpace(string(a.ID)) == "" {
			return Roster{}, fmt.Errorf("%w: agent %d has empty id", ErrInvalidRoster, i)
		}
		if _, dup := r.index[a.ID]; dup {
			return Roster{}, fmt.Errorf("%w: duplicate agent id %q", ErrInvalidRoster, a.ID)
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return Roster{}, fmt.Errorf("%w: agent %q has empty name", ErrInvalidRoster, a.ID)
		}
		if _, dup := names[name]; dup {
			return Roster{}, fmt.Errorf("%w: duplicate agent name %q", ErrInvalidRoster, name)
		}
		names[name] = struct{}{}
		a.Name = name
		r.index[a.ID] = i
		r.agents = append(r.agents, a)
	}
	return r, nil
}

func (r Roster) Len() int { return len(r.agents) }

// Index returns the roster position of id, or -1.
func (r Roster) Index(id AgentID) int {
	i, ok := r.index[id]
	if !ok {
		return -1
	}
	return i
}

func (r Roster) Contains(id AgentID) bool {
	_, ok := r.index[id]
	return ok
}

func (r Roster) Agent(id AgentID) (Agent, error) {
	i, ok := r.index[id]
	if !ok {
		return Agent{}, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	return r.agents[i], nil
}

func (r Roster) Agents() []Agent {
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

func (r Roster) IDs() []AgentID {
	out := make([]AgentID, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.ID)
	}
	return out
}
