package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"winloss_server/internal/domain"
)

type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) (*GormTransactor, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &GormTransactor{db: db}, nil
}

func (t *GormTransactor) InTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, domain.Stores{
			Trades:   &GormTradeRepository{db: tx},
			Accounts: &GormAccountRepository{db: tx},
			WinLoss:  &GormWinLossRepository{db: tx},
		})
	})
}
