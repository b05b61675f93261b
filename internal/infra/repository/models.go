package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"winloss_server/internal/domain"
)

type AccountModel struct {
	UserID      string          `gorm:"column:user_id;primaryKey;size:128"`
	DemoBalance decimal.Decimal `gorm:"column:demo_balance;type:decimal(20,8);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func toAccountModel(account domain.Account) AccountModel {
	return AccountModel{
		UserID:      account.UserID,
		DemoBalance: account.DemoBalance,
	}
}

func (m AccountModel) toDomain() domain.Account {
	return domain.Account{
		UserID:      m.UserID,
		DemoBalance: m.DemoBalance,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type TradeModel struct {
	ID            string          `gorm:"column:id;primaryKey;size:26"`
	UserID        string          `gorm:"column:user_id;not null;index"`
	Symbol        string          `gorm:"column:symbol;not null"`
	Direction     string          `gorm:"column:direction;not null"`
	Stake         decimal.Decimal `gorm:"column:stake;type:decimal(20,8);not null"`
	PayoutPercent decimal.Decimal `gorm:"column:payout_percent;type:decimal(10,4);not null"`
	EntryPrice    float64         `gorm:"column:entry_price"`
	ExitPrice     float64         `gorm:"column:exit_price"`
	Status        string          `gorm:"column:status;not null;index:idx_trades_status_expiry,priority:1"`
	Outcome       *string         `gorm:"column:outcome"`
	Forced        bool            `gorm:"column:forced;not null;default:false"`
	Payout        decimal.Decimal `gorm:"column:payout;type:decimal(20,8)"`
	OpenedAt      time.Time       `gorm:"column:opened_at;not null"`
	ExpiresAt     time.Time       `gorm:"column:expires_at;not null;index:idx_trades_status_expiry,priority:2"`
	SettledAt     *time.Time      `gorm:"column:settled_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (TradeModel) TableName() string {
	return "trades"
}

func toTradeModel(trade domain.Trade) TradeModel {
	return TradeModel{
		ID:            trade.ID,
		UserID:        trade.UserID,
		Symbol:        trade.Symbol,
		Direction:     string(trade.Direction),
		Stake:         trade.Stake,
		PayoutPercent: trade.PayoutPercent,
		EntryPrice:    trade.EntryPrice,
		ExitPrice:     trade.ExitPrice,
		Status:        string(trade.Status),
		Outcome:       stringPointerOrNil(string(trade.Outcome)),
		Forced:        trade.Forced,
		Payout:        trade.Payout,
		OpenedAt:      trade.OpenedAt,
		ExpiresAt:     trade.ExpiresAt,
		SettledAt:     trade.SettledAt,
	}
}

func (m TradeModel) toDomain() domain.Trade {
	return domain.Trade{
		ID:            m.ID,
		UserID:        m.UserID,
		Symbol:        m.Symbol,
		Direction:     domain.TradeDirection(m.Direction),
		Stake:         m.Stake,
		PayoutPercent: m.PayoutPercent,
		EntryPrice:    m.EntryPrice,
		ExitPrice:     m.ExitPrice,
		Status:        domain.TradeStatus(m.Status),
		Outcome:       domain.Outcome(stringValueOrEmpty(m.Outcome)),
		Forced:        m.Forced,
		Payout:        m.Payout,
		OpenedAt:      m.OpenedAt,
		ExpiresAt:     m.ExpiresAt,
		SettledAt:     m.SettledAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// WinLossStateModel keeps each variant's settings and statistics in JSON columns so
// the inactive variant's history survives switching.
type WinLossStateModel struct {
	UserID         string         `gorm:"column:user_id;primaryKey;size:128"`
	Enabled        bool           `gorm:"column:enabled;not null;default:false"`
	ActiveVariant  int            `gorm:"column:active_variant;not null;default:0"`
	Variant1Config datatypes.JSON `gorm:"column:variant1_config"`
	Variant2Config datatypes.JSON `gorm:"column:variant2_config"`
	Variant1Stats  datatypes.JSON `gorm:"column:variant1_stats"`
	Variant2Stats  datatypes.JSON `gorm:"column:variant2_stats"`
	TotalWins      int            `gorm:"column:total_wins;not null;default:0"`
	TotalLosses    int            `gorm:"column:total_losses;not null;default:0"`
	StatsUpdatedAt *time.Time     `gorm:"column:stats_updated_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (WinLossStateModel) TableName() string {
	return "winloss_states"
}

func toWinLossStateModel(state domain.WinLossState) (WinLossStateModel, error) {
	v1cfg, err := json.Marshal(state.Config.Variant1)
	if err != nil {
		return WinLossStateModel{}, fmt.Errorf("encode variant1 config: %w", err)
	}
	v2cfg, err := json.Marshal(state.Config.Variant2)
	if err != nil {
		return WinLossStateModel{}, fmt.Errorf("encode variant2 config: %w", err)
	}
	v1stats, err := json.Marshal(state.Stats.Variant1)
	if err != nil {
		return WinLossStateModel{}, fmt.Errorf("encode variant1 stats: %w", err)
	}
	v2stats, err := json.Marshal(state.Stats.Variant2)
	if err != nil {
		return WinLossStateModel{}, fmt.Errorf("encode variant2 stats: %w", err)
	}

	return WinLossStateModel{
		UserID:         state.UserID,
		Enabled:        state.Config.Enabled,
		ActiveVariant:  int(state.Config.ActiveVariant),
		Variant1Config: datatypes.JSON(v1cfg),
		Variant2Config: datatypes.JSON(v2cfg),
		Variant1Stats:  datatypes.JSON(v1stats),
		Variant2Stats:  datatypes.JSON(v2stats),
		TotalWins:      state.Stats.TotalWins,
		TotalLosses:    state.Stats.TotalLosses,
		StatsUpdatedAt: timePointerOrNil(state.Stats.LastUpdated),
	}, nil
}

func (m WinLossStateModel) toDomain() (domain.WinLossState, error) {
	state := domain.WinLossState{
		UserID: m.UserID,
		Config: domain.WinLossConfig{
			Enabled:       m.Enabled,
			ActiveVariant: domain.Variant(m.ActiveVariant),
		},
		Stats: domain.WinLossStats{
			TotalWins:   m.TotalWins,
			TotalLosses: m.TotalLosses,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.StatsUpdatedAt != nil {
		state.Stats.LastUpdated = *m.StatsUpdatedAt
	}

	if err := decodeJSON(m.Variant1Config, &state.Config.Variant1); err != nil {
		return domain.WinLossState{}, fmt.Errorf("decode variant1 config: %w", err)
	}
	if err := decodeJSON(m.Variant2Config, &state.Config.Variant2); err != nil {
		return domain.WinLossState{}, fmt.Errorf("decode variant2 config: %w", err)
	}
	if err := decodeJSON(m.Variant1Stats, &state.Stats.Variant1); err != nil {
		return domain.WinLossState{}, fmt.Errorf("decode variant1 stats: %w", err)
	}
	if err := decodeJSON(m.Variant2Stats, &state.Stats.Variant2); err != nil {
		return domain.WinLossState{}, fmt.Errorf("decode variant2 stats: %w", err)
	}
	if state.Stats.Variant1.WindowTrades == nil {
		state.Stats.Variant1.WindowTrades = []domain.WindowTrade{}
	}

	return state, nil
}

func decodeJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func stringPointerOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timePointerOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
