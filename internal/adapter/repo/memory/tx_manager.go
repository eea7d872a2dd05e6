package memory

import (
	"context"
	"errors"
)

var errNestedTx = errors.New("memory: nested transaction")

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serialises fn against every other store access and rolls the store
// back when fn fails.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return errNestedTx
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	games, battles := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey, true)); err != nil {
		t.store.games = games
		t.store.battles = battles
		return err
	}
	return nil
}
