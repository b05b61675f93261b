package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceFeed provides the quotes trades are opened and settled against.
type PriceFeed interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// WinLossRepository persists per-user outcome-control configuration and statistics.
// GetState returns ErrNotFound for users that were never enrolled.
type WinLossRepository interface {
	GetState(ctx context.Context, userID string) (WinLossState, error)
	SaveState(ctx context.Context, state WinLossState) error
}

type TradeRepository interface {
	CreateTrade(ctx context.Context, trade Trade) error
	UpdateTrade(ctx context.Context, trade Trade) error
	GetTrade(ctx context.Context, tradeID string) (Trade, error)
	ListTrades(ctx context.Context, userID string, limit int) ([]Trade, error)
	ListDueTrades(ctx context.Context, now time.Time, limit int) ([]Trade, error)
}

type AccountRepository interface {
	GetAccount(ctx context.Context, userID string) (Account, error)
	SaveAccount(ctx context.Context, account Account) error
}

// NewAccount opens a demo account with the given starting balance.
func NewAccount(userID string, balance decimal.Decimal) Account {
	return Account{UserID: userID, DemoBalance: balance}
}

// UserLocker serialises the load, decide, execute, update and save sequence per user.
type UserLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}

// Stores groups the repositories bound to one transaction.
type Stores struct {
	Trades   TradeRepository
	Accounts AccountRepository
	WinLoss  WinLossRepository
}

// Transactor runs fn in a single transaction. Every write made through stores
// commits together or not at all.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
