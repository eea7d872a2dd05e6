package sqliterepo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type txCtxKey struct{}

// queryer is the part of sqlx shared by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type TxManager struct {
	db *DB
}

func NewTxManager(db *DB) TxManager {
	return TxManager{db: db}
}

// RunInTx commits when fn returns nil and rolls back otherwise. Inside an
// outer transaction fn joins it.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := t.db.conn.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) q(ctx context.Context) queryer {
	if tx, ok := ctx.Value(txCtxKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db.conn
}
