package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientFunds = errors.New("insufficient demo balance")
	ErrTradeSettled      = errors.New("trade already settled")
)

type TradeStatus string

const (
	TradeStatusOpen    TradeStatus = "open"
	TradeStatusSettled TradeStatus = "settled"
)

type TradeDirection string

const (
	DirectionUp   TradeDirection = "up"
	DirectionDown TradeDirection = "down"
)

func (d TradeDirection) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Trade is a fixed-expiry binary option placed against the demo balance.
type Trade struct {
	ID            string
	UserID        string
	Symbol        string
	Direction     TradeDirection
	Stake         decimal.Decimal
	PayoutPercent decimal.Decimal
	EntryPrice    float64
	ExitPrice     float64
	Status        TradeStatus
	Outcome       Outcome
	Forced        bool
	Payout        decimal.Decimal
	OpenedAt      time.Time
	ExpiresAt     time.Time
	SettledAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MarketOutcome resolves the trade against the quotes alone. A flat close is a loss.
func (t Trade) MarketOutcome() Outcome {
	switch {
	case t.Direction == DirectionUp && t.ExitPrice > t.EntryPrice:
		return OutcomeWin
	case t.Direction == DirectionDown && t.ExitPrice < t.EntryPrice:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// GrossPayout is the amount credited back on a win: stake plus the payout premium.
func (t Trade) GrossPayout() decimal.Decimal {
	premium := t.Stake.Mul(t.PayoutPercent).Div(decimal.NewFromInt(100))
	return t.Stake.Add(premium)
}

type Account struct {
	UserID      string
	DemoBalance decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Quote struct {
	Symbol string
	Price  float64
	At     time.Time
}
