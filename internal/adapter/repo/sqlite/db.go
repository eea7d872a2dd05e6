// Package sqliterepo stores games in an embedded SQLite file for single
// process deployments.
package sqliterepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; RunInTx relies on it for serialisation.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		agents TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS battles (
		game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL CHECK (seq > 0),
		attacker TEXT NOT NULL,
		defender TEXT NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		proposed_at TEXT NOT NULL,
		resolved_at TEXT,
		PRIMARY KEY (game_id, seq)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_battles_pending ON battles(game_id) WHERE winner = '';
	`
	_, err := db.conn.ExecContext(ctx, schema)
	return err
}
