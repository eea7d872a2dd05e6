package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"imperialism/internal/adapter/repo/gorm/model"
	"imperialism/internal/app/ports"
	"imperialism/internal/domain/territory"

	"gorm.io/gorm"
)

type GameRepo struct {
	db *gorm.DB
}

func NewGameRepo(db *gorm.DB) GameRepo {
	return GameRepo{db: db}
}

func (r GameRepo) Create(ctx context.Context, game ports.GameRecord) error {
	agents, err := json.Marshal(game.Agents)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	m := model.Game{
		ID:        game.ID,
		Agents:    string(agents),
		Version:   game.Version,
		CreatedAt: game.CreatedAt,
	}
	if err := getDBFromCtx(ctx, r.db).WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r GameRepo) Get(ctx context.Context, gameID string) (ports.GameRecord, error) {
	var m model.Game
	if err := getDBFromCtx(ctx, r.db).WithContext(ctx).Where("id = ?", gameID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.GameRecord{}, ports.ErrNotFound
		}
		return ports.GameRecord{}, err
	}
	var agents []territory.Agent
	if err := json.Unmarshal([]byte(m.Agents), &agents); err != nil {
		return ports.GameRecord{}, fmt.Errorf("decode roster of game %s: %w", gameID, err)
	}
	return ports.GameRecord{
		ID:        m.ID,
		Agents:    agents,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (r GameRepo) SaveVersion(ctx context.Context, gameID string, expectedVersion, next int64) error {
	res := getDBFromCtx(ctx, r.db).WithContext(ctx).
		Model(&model.Game{}).
		Where("id = ? AND version = ?", gameID, expectedVersion).
		Update("version", next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := getDBFromCtx(ctx, r.db).WithContext(ctx).Model(&model.Game{}).Where("id = ?", gameID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return ports.ErrConflict
}
