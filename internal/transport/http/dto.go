package http

import (
	"time"

	"github.com/shopspring/decimal"

	"winloss_server/internal/domain"
	"winloss_server/internal/winloss"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// OpenTradeRequest takes the stake as a JSON number or a decimal string.
type OpenTradeRequest struct {
	Symbol          string          `json:"symbol" example:"EURUSD"`
	Direction       string          `json:"direction" example:"up"`
	Stake           decimal.Decimal `json:"stake" swaggertype:"string" example:"100"`
	DurationSeconds int             `json:"durationSeconds" example:"60"`
}

type SwitchVariantRequest struct {
	Variant *int `json:"variant" example:"1"`
}

type TradeResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Symbol        string     `json:"symbol"`
	Direction     string     `json:"direction"`
	Stake         string     `json:"stake"`
	PayoutPercent string     `json:"payoutPercent"`
	EntryPrice    float64    `json:"entryPrice"`
	ExitPrice     float64    `json:"exitPrice,omitempty"`
	Status        string     `json:"status"`
	Outcome       string     `json:"outcome,omitempty"`
	Forced        bool       `json:"forced"`
	Payout        string     `json:"payout"`
	OpenedAt      time.Time  `json:"openedAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}

func toTradeResponse(t domain.Trade) TradeResponse {
	return TradeResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Symbol:        t.Symbol,
		Direction:     string(t.Direction),
		Stake:         t.Stake.String(),
		PayoutPercent: t.PayoutPercent.String(),
		EntryPrice:    t.EntryPrice,
		ExitPrice:     t.ExitPrice,
		Status:        string(t.Status),
		Outcome:       string(t.Outcome),
		Forced:        t.Forced,
		Payout:        t.Payout.String(),
		OpenedAt:      t.OpenedAt,
		ExpiresAt:     t.ExpiresAt,
		SettledAt:     t.SettledAt,
	}
}

type AccountResponse struct {
	UserID      string `json:"userId"`
	DemoBalance string `json:"demoBalance"`
}

func toAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		UserID:      a.UserID,
		DemoBalance: a.DemoBalance.String(),
	}
}

// WinLossStateResponse adds RequiredWins, the number of wins variant 1 targets per
// window.
type WinLossStateResponse struct {
	UserID       string               `json:"userId"`
	Config       domain.WinLossConfig `json:"config"`
	Stats        domain.WinLossStats  `json:"stats"`
	RequiredWins int                  `json:"requiredWins"`
}

func toWinLossStateResponse(s domain.WinLossState) WinLossStateResponse {
	return WinLossStateResponse{
		UserID:       s.UserID,
		Config:       s.Config,
		Stats:        s.Stats,
		RequiredWins: winloss.RequiredWins(s.Config.Variant1),
	}
}
