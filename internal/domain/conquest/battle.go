package conquest

import (
	"errors"
	"fmt"

	"imperialism/internal/domain/territory"
)

var (
	ErrNoViableAttacker = errors.New("no viable attacker")
	ErrBattlePending    = errors.New("battle pending")
	ErrNoPendingBattle  = errors.New("no pending battle")
	ErrProposalMismatch = errors.New("battle does not match pending proposal")
	ErrInvalidWinner    = errors.New("invalid winner")
	ErrMalformedLog     = errors.New("malformed battle log")
)

// BattleEvent is one contest. An empty Winner means the battle is pending.
type BattleEvent struct {
	Attacker territory.AgentID `json:"attacker"`
	Defender territory.AgentID `json:"defender"`
	Winner   territory.AgentID `json:"winner,omitempty"`
}

func (e BattleEvent) Resolved() bool { return e.Winner != "" }

// Loser returns the side that is not the winner. ok is false when the event is
// pending or the winner names neither side.
func (e BattleEvent) Loser() (territory.AgentID, bool) {
	switch e.Winner {
	case "":
		return "", false
	case e.Attacker:
		return e.Defender, true
	case e.Defender:
		return e.Attacker, true
	default:
		return "", false
	}
}

// Log is the append-only sequence of resolved battles.
type Log struct {
	events []BattleEvent
}

func NewLog(events []BattleEvent) (*Log, error) {
	l := &Log{}
	for i, e := range events {
		if err := l.Append(e); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return l, nil
}

func (l *Log) Append(e BattleEvent) error {
	if e.Attacker == e.Defender {
		return fmt.Errorf("%w: self battle %s", ErrMalformedLog, e.Attacker)
	}
	if _, ok := e.Loser(); !ok {
		return fmt.Errorf("%w: unresolved or foreign winner %q", ErrMalformedLog, e.Winner)
	}
	l.events = append(l.events, e)
	return nil
}

func (l *Log) Len() int { return len(l.events) }

func (l *Log) Events() []BattleEvent {
	return append([]BattleEvent(nil), l.events...)
}
