package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"imperialism/internal/app/ports"
)

type Store struct {
	mu      sync.RWMutex
	games   map[string]ports.GameRecord
	battles map[string][]ports.BattleRecord
}

func NewStore() *Store {
	return &Store{
		games:   make(map[string]ports.GameRecord),
		battles: make(map[string][]ports.BattleRecord),
	}
}

type txKeyType struct{}

var txKey = txKeyType{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey).(bool)
	return v
}

// read and write take the store lock unless the caller already holds it
// through TxManager.RunInTx.
func (s *Store) read(ctx context.Context, fn func()) {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

func (s *Store) snapshot() (map[string]ports.GameRecord, map[string][]ports.BattleRecord) {
	battles := make(map[string][]ports.BattleRecord, len(s.battles))
	for id, list := range s.battles {
		battles[id] = slices.Clone(list)
	}
	return maps.Clone(s.games), battles
}
