package sqliterepo

import (
	"context"
	"time"

	"imperialism/internal/app/ports"
	"imperialism/internal/domain/territory"
)

type battleRow struct {
	Seq        int     `db:"seq"`
	Attacker   string  `db:"attacker"`
	Defender   string  `db:"defender"`
	Winner     string  `db:"winner"`
	ProposedAt string  `db:"proposed_at"`
	ResolvedAt *string `db:"resolved_at"`
}

type BattleRepo struct {
	db *DB
}

func NewBattleRepo(db *DB) BattleRepo {
	return BattleRepo{db: db}
}

func (r BattleRepo) Append(ctx context.Context, gameID string, battles []ports.BattleRecord) error {
	if len(battles) == 0 {
		return nil
	}
	q := r.db.q(ctx)
	var last int
	if err := q.GetContext(ctx, &last, `SELECT COALESCE(MAX(seq), 0) FROM battles WHERE game_id = ?`, gameID); err != nil {
		return err
	}
	for i, b := range battles {
		if b.Seq != last+i+1 {
			return ports.ErrConflict
		}
		var resolvedAt *string
		if b.ResolvedAt != nil {
			s := formatTime(*b.ResolvedAt)
			resolvedAt = &s
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO battles (game_id, seq, attacker, defender, winner, proposed_at, resolved_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			gameID, b.Seq, string(b.Attacker), string(b.Defender), string(b.Winner), formatTime(b.ProposedAt), resolvedAt)
		if err != nil {
			if isConstraint(err) {
				return ports.ErrConflict
			}
			return err
		}
	}
	return nil
}

func (r BattleRepo) Resolve(ctx context.Context, gameID string, seq int, winner territory.AgentID, resolvedAt time.Time) error {
	q := r.db.q(ctx)
	res, err := q.ExecContext(ctx,
		`UPDATE battles SET winner = ?, resolved_at = ? WHERE game_id = ? AND seq = ? AND winner = ''`,
		string(winner), formatTime(resolvedAt), gameID, seq)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	var count int
	if err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM battles WHERE game_id = ? AND seq = ?`, gameID, seq); err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrConflict
}

func (r BattleRepo) DeletePending(ctx context.Context, gameID string) error {
	_, err := r.db.q(ctx).ExecContext(ctx, `DELETE FROM battles WHERE game_id = ? AND winner = ''`, gameID)
	return err
}

func (r BattleRepo) ListByGameID(ctx context.Context, gameID string) ([]ports.BattleRecord, error) {
	var rows []battleRow
	err := r.db.q(ctx).SelectContext(ctx, &rows,
		`SELECT seq, attacker, defender, winner, proposed_at, resolved_at FROM battles WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, err
	}
	out := make([]ports.BattleRecord, 0, len(rows))
	for _, row := range rows {
		rec := ports.BattleRecord{
			Seq:        row.Seq,
			Attacker:   territory.AgentID(row.Attacker),
			Defender:   territory.AgentID(row.Defender),
			Winner:     territory.AgentID(row.Winner),
			ProposedAt: parseTime(row.ProposedAt),
		}
		if row.ResolvedAt != nil {
			at := parseTime(*row.ResolvedAt)
			rec.ResolvedAt = &at
		}
		out = append(out, rec)
	}
	return out, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
