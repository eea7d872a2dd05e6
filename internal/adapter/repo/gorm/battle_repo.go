package gormrepo

import (
	"context"
	"errors"
	"time"

	"imperialism/internal/adapter/repo/gorm/model"
	"imperialism/internal/app/ports"
	"imperialism/internal/domain/territory"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BattleRepo struct {
	db *gorm.DB
}

func NewBattleRepo(db *gorm.DB) BattleRepo {
	return BattleRepo{db: db}
}

// Append requires battles to continue the stored sequence. The (game_id, seq)
// primary key rejects concurrent writers that raced past the check.
func (r BattleRepo) Append(ctx context.Context, gameID string, battles []ports.BattleRecord) error {
	if len(battles) == 0 {
		return nil
	}
	db := getDBFromCtx(ctx, r.db).WithContext(ctx)
	var last int64
	if err := db.Model(&model.Battle{}).
		Where("game_id = ?", gameID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return err
	}
	rows := make([]model.Battle, 0, len(battles))
	for i, b := range battles {
		if int64(b.Seq) != last+int64(i)+1 {
			return ports.ErrConflict
		}
		rows = append(rows, model.Battle{
			GameID:     gameID,
			Seq:        int32(b.Seq),
			Attacker:   string(b.Attacker),
			Defender:   string(b.Defender),
			Winner:     string(b.Winner),
			ProposedAt: b.ProposedAt,
			ResolvedAt: b.ResolvedAt,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r BattleRepo) Resolve(ctx context.Context, gameID string, seq int, winner territory.AgentID, resolvedAt time.Time) error {
	db := getDBFromCtx(ctx, r.db).WithContext(ctx)
	res := db.Model(&model.Battle{}).
		Where("game_id = ? AND seq = ? AND winner = ''", gameID, seq).
		Updates(map[string]any{
			"winner":      string(winner),
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(&model.Battle{}).Where("game_id = ? AND seq = ?", gameID, seq).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrConflict
}

func (r BattleRepo) DeletePending(ctx context.Context, gameID string) error {
	return getDBFromCtx(ctx, r.db).WithContext(ctx).
		Where("game_id = ? AND winner = ''", gameID).
		Delete(&model.Battle{}).Error
}

func (r BattleRepo) ListByGameID(ctx context.Context, gameID string) ([]ports.BattleRecord, error) {
	rows := []model.Battle{}
	err := getDBFromCtx(ctx, r.db).WithContext(ctx).
		Where(&model.Battle{GameID: gameID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "seq"}}},
		}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.BattleRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.BattleRecord{
			Seq:        int(row.Seq),
			Attacker:   territory.AgentID(row.Attacker),
			Defender:   territory.AgentID(row.Defender),
			Winner:     territory.AgentID(row.Winner),
			ProposedAt: row.ProposedAt,
			ResolvedAt: row.ResolvedAt,
		})
	}
	return out, nil
}
