package conquest

import (
	"errors"
	"fmt"
	"slices"

	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/territory"
)

// Rand is the source of uniform choices. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseProposed Phase = "proposed"
)

type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	// OutcomeConquest: a single agent remains active.
	OutcomeConquest Outcome = "conquest"
	// OutcomeStalemate: several agents remain but none border each other.
	OutcomeStalemate Outcome = "stalemate"
)

var errNilDependency = errors.New("conquest: nil graph or rand")

// Engine is the battle state machine for one game. It is not safe for
// concurrent use; callers serialise access.
type Engine struct {
	roster  territory.Roster
	graph   *adjacency.Graph
	rnd     Rand
	state   territory.State
	log     *Log
	pending *BattleEvent
}

func NewEngine(roster territory.Roster, initial territory.State, graph *adjacency.Graph, rnd Rand) (*Engine, error) {
	if graph == nil || rnd == nil {
		return nil, errNilDependency
	}
	if initial.Len() != graph.Len() {
		return nil, fmt.Errorf("%w: partition covers %d entities, graph has %d", territory.ErrUnknownEntity, initial.Len(), graph.Len())
	}
	for id, owner := range initial.Ownership() {
		if !graph.Contains(id) {
			return nil, fmt.Errorf("%w: %s", territory.ErrUnknownEntity, id)
		}
		if !roster.Contains(owner) {
			return nil, fmt.Errorf("%w: %s owns %s", territory.ErrUnknownAgent, owner, id)
		}
	}
	return &Engine{
		roster: roster,
		graph:  graph,
		rnd:    rnd,
		state:  initial,
		log:    &Log{},
	}, nil
}

// Resume rebuilds an engine whose territory is the replay of events over
// initial. The log stays the single source of truth.
func Resume(roster territory.Roster, initial territory.State, graph *adjacency.Graph, rnd Rand, events []BattleEvent) (*Engine, error) {
	e, err := NewEngine(roster, initial, graph, rnd)
	if err != nil {
		return nil, err
	}
	snaps, err := Replay(roster, initial, events)
	if err != nil {
		return nil, err
	}
	log, err := NewLog(events)
	if err != nil {
		return nil, err
	}
	e.state = snaps[len(snaps)-1]
	e.log = log
	return e, nil
}

func (e *Engine) Phase() Phase {
	if e.pending != nil {
		return PhaseProposed
	}
	return PhaseIdle
}

func (e *Engine) Territory() territory.State { return e.state }

func (e *Engine) Roster() territory.Roster { return e.roster }

func (e *Engine) Log() []BattleEvent { return e.log.Events() }

func (e *Engine) Pending() (BattleEvent, bool) {
	if e.pending == nil {
		return BattleEvent{}, false
	}
	return *e.pending, true
}

// AgentNeighbors returns the agents bordering agent, in roster order.
func (e *Engine) AgentNeighbors(agent territory.AgentID) ([]territory.AgentID, error) {
	if !e.roster.Contains(agent) {
		return nil, fmt.Errorf("%w: %s", territory.ErrUnknownAgent, agent)
	}
	return e.inRosterOrder(e.graph.AgentNeighbors(agent, e.state)), nil
}

// Viable returns the active agents that border at least one other agent.
func (e *Engine) Viable() []territory.AgentID {
	return Viable(e.roster, e.state, e.graph)
}

func (e *Engine) Outcome() Outcome {
	return Evaluate(e.roster, e.state, e.graph)
}

// Viable returns, in roster order, the active agents of state that border at
// least one other agent.
func Viable(roster territory.Roster, state territory.State, graph *adjacency.Graph) []territory.AgentID {
	out := make([]territory.AgentID, 0)
	for _, id := range state.ActiveAgents(roster) {
		if len(graph.AgentNeighbors(id, state)) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Evaluate tells a finished game (single empire or disconnected stalemate)
// from one still in progress.
func Evaluate(roster territory.Roster, state territory.State, graph *adjacency.Graph) Outcome {
	if len(state.ActiveAgents(roster)) <= 1 {
		return OutcomeConquest
	}
	if len(Viable(roster, state, graph)) == 0 {
		return OutcomeStalemate
	}
	return OutcomeInProgress
}

// Propose picks a uniformly random viable attacker and a uniformly random
// neighbor of it as defender.
func (e *Engine) Propose() (BattleEvent, error) {
	if e.pending != nil {
		return BattleEvent{}, ErrBattlePending
	}
	viable := e.Viable()
	if len(viable) == 0 {
		return BattleEvent{}, fmt.Errorf("%w: %s", ErrNoViableAttacker, e.Outcome())
	}
	attacker := viable[e.rnd.Intn(len(viable))]
	defenders := e.inRosterOrder(e.graph.AgentNeighbors(attacker, e.state))
	defender := defenders[e.rnd.Intn(len(defenders))]

	ev := BattleEvent{Attacker: attacker, Defender: defender}
	e.pending = &ev
	return ev, nil
}

// Restore re-installs a pending battle loaded from storage.
func (e *Engine) Restore(ev BattleEvent) error {
	if e.pending != nil {
		return ErrBattlePending
	}
	if ev.Resolved() {
		return fmt.Errorf("%w: pending battle already has winner %s", ErrMalformedLog, ev.Winner)
	}
	if !e.state.Active(ev.Attacker) {
		return fmt.Errorf("%w: attacker %s holds no territory", ErrMalformedLog, ev.Attacker)
	}
	if !slices.Contains(e.graph.AgentNeighbors(ev.Attacker, e.state), ev.Defender) {
		return fmt.Errorf("%w: %s does not border %s", ErrMalformedLog, ev.Defender, ev.Attacker)
	}
	e.pending = &ev
	return nil
}

// Resolve applies the pending battle: every entity of the loser moves to the
// winner. On any error nothing changes.
func (e *Engine) Resolve(ev BattleEvent, winner territory.AgentID) (territory.State, error) {
	if e.pending == nil {
		return territory.State{}, ErrNoPendingBattle
	}
	if ev.Attacker != e.pending.Attacker || ev.Defender != e.pending.Defender {
		return territory.State{}, fmt.Errorf("%w: got %s vs %s", ErrProposalMismatch, ev.Attacker, ev.Defender)
	}
	resolved := *e.pending
	resolved.Winner = winner
	loser, ok := resolved.Loser()
	if !ok {
		return territory.State{}, fmt.Errorf("%w: %q is neither %s nor %s", ErrInvalidWinner, winner, resolved.Attacker, resolved.Defender)
	}

	next := e.state.Transfer(loser, winner)
	if err := e.log.Append(resolved); err != nil {
		return territory.State{}, err
	}
	e.state = next
	e.pending = nil
	return next, nil
}

// Abandon drops the pending proposal, if any.
func (e *Engine) Abandon() {
	e.pending = nil
}

func (e *Engine) inRosterOrder(ids []territory.AgentID) []territory.AgentID {
	out := make([]territory.AgentID, 0, len(ids))
	for _, id := range e.roster.IDs() {
		if slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	return out
}
