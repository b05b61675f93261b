package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"winloss_server/internal/domain"
)

type GormTradeRepository struct {
	db *gorm.DB
}

func NewGormTradeRepository(db *gorm.DB) (*GormTradeRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormTradeRepository{db: db}, nil
}

func (r *GormTradeRepository) CreateTrade(ctx context.Context, trade domain.Trade) error {
	model := toTradeModel(trade)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormTradeRepository) UpdateTrade(ctx context.Context, trade domain.Trade) error {
	model := toTradeModel(trade)

	result := r.db.WithContext(ctx).
		Model(&TradeModel{}).
		Where("id = ?", trade.ID).
		Updates(map[string]interface{}{
			"exit_price": model.ExitPrice,
			"status":     model.Status,
			"outcome":    model.Outcome,
			"forced":     model.Forced,
			"payout":     model.Payout,
			"settled_at": model.SettledAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormTradeRepository) GetTrade(ctx context.Context, tradeID string) (domain.Trade, error) {
	var model TradeModel
	err := r.db.WithContext(ctx).
		Where("id = ?", tradeID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Trade{}, domain.ErrNotFound
		}
		return domain.Trade{}, err
	}

	return model.toDomain(), nil
}

func (r *GormTradeRepository) ListTrades(ctx context.Context, userID string, limit int) ([]domain.Trade, error) {
	var models []TradeModel
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("opened_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, len(models))
	for i, model := range models {
		trades[i] = model.toDomain()
	}

	return trades, nil
}

// ListDueTrades returns open trades whose expiry is at or before now, oldest first.
func (r *GormTradeRepository) ListDueTrades(ctx context.Context, now time.Time, limit int) ([]domain.Trade, error) {
	var models []TradeModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", string(domain.TradeStatusOpen), now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, len(models))
	for i, model := range models {
		trades[i] = model.toDomain()
	}

	return trades, nil
}
