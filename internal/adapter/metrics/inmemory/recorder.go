package inmemory

import (
	"sync"

	"imperialism/internal/app/ports"
)

// OpCounts is the result breakdown of one battle operation.
type OpCounts struct {
	Success  uint64 `json:"success"`
	Conflict uint64 `json:"conflict"`
	Failure  uint64 `json:"failure"`
}

func (c OpCounts) Total() uint64 { return c.Success + c.Conflict + c.Failure }

type Snapshot struct {
	BattleTotal    uint64              `json:"battle_total"`
	BattleSuccess  uint64              `json:"battle_success"`
	BattleConflict uint64              `json:"battle_conflict"`
	BattleFailure  uint64              `json:"battle_failure"`
	ByOp           map[string]OpCounts `json:"by_op"`
}

// Recorder keeps battle counters per op in process memory. Totals are
// derived from the per-op counts when a snapshot is taken.
type Recorder struct {
	mu   sync.Mutex
	byOp map[ports.BattleOp]*OpCounts
}

func NewRecorder() *Recorder {
	return &Recorder{byOp: map[ports.BattleOp]*OpCounts{}}
}

func (r *Recorder) RecordSuccess(op ports.BattleOp) {
	r.record(op, func(c *OpCounts) { c.Success++ })
}

func (r *Recorder) RecordConflict(op ports.BattleOp) {
	r.record(op, func(c *OpCounts) { c.Conflict++ })
}

func (r *Recorder) RecordFailure(op ports.BattleOp) {
	r.record(op, func(c *OpCounts) { c.Failure++ })
}

func (r *Recorder) record(op ports.BattleOp, bump func(*OpCounts)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byOp[op]
	if !ok {
		c = &OpCounts{}
		r.byOp[op] = c
	}
	bump(c)
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{ByOp: make(map[string]OpCounts, len(r.byOp))}
	for op, c := range r.byOp {
		out.ByOp[string(op)] = *c
		out.BattleSuccess += c.Success
		out.BattleConflict += c.Conflict
		out.BattleFailure += c.Failure
	}
	out.BattleTotal = out.BattleSuccess + out.BattleConflict + out.BattleFailure
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
