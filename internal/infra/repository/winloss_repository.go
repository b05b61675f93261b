package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"winloss_server/internal/domain"
)

type GormWinLossRepository struct {
	db *gorm.DB
}

func NewGormWinLossRepository(db *gorm.DB) (*GormWinLossRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}

	return &GormWinLossRepository{db: db}, nil
}

func (r *GormWinLossRepository) GetState(ctx context.Context, userID string) (domain.WinLossState, error) {
	var model WinLossStateModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WinLossState{}, domain.ErrNotFound
		}
		return domain.WinLossState{}, fmt.Errorf("get winloss state: %w", err)
	}

	return model.toDomain()
}

func (r *GormWinLossRepository) SaveState(ctx context.Context, state domain.WinLossState) error {
	if state.UserID == "" {
		return fmt.Errorf("user id required")
	}

	model, err := toWinLossStateModel(state)
	if err != nil {
		return err
	}

	assignments := clause.Assignments(map[string]interface{}{
		"enabled":          gorm.Expr("EXCLUDED.enabled"),
		"active_variant":   gorm.Expr("EXCLUDED.active_variant"),
		"variant1_config":  gorm.Expr("EXCLUDED.variant1_config"),
		"variant2_config":  gorm.Expr("EXCLUDED.variant2_config"),
		"variant1_stats":   gorm.Expr("EXCLUDED.variant1_stats"),
		"variant2_stats":   gorm.Expr("EXCLUDED.variant2_stats"),
		"total_wins":       gorm.Expr("EXCLUDED.total_wins"),
		"total_losses":     gorm.Expr("EXCLUDED.total_losses"),
		"stats_updated_at": gorm.Expr("EXCLUDED.stats_updated_at"),
		"updated_at":       gorm.Expr("CURRENT_TIMESTAMP"),
	})

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: assignments,
		}).
		Create(&model).Error; err != nil {
		return fmt.Errorf("save winloss state: %w", err)
	}
	return nil
}
