package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Outcome is the result of a settled trade. OutcomeNone means no outcome is forced
// and the market result stands.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// Variant selects the active outcome-control strategy. VariantNone disables both.
type Variant int

const (
	VariantNone Variant = 0
	Variant1    Variant = 1
	Variant2    Variant = 2
)

func (v Variant) Valid() bool {
	return v == VariantNone || v == Variant1 || v == Variant2
}

// MarshalJSON encodes VariantNone as null.
func (v Variant) MarshalJSON() ([]byte, error) {
	if v == VariantNone {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(v))), nil
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*v = VariantNone
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid variant %s", raw)
	}
	parsed := Variant(n)
	if !parsed.Valid() {
		return fmt.Errorf("unknown variant %d", n)
	}
	*v = parsed
	return nil
}

// Variant1Config keeps the winrate of the last WindowSize trades at WinratePercent.
type Variant1Config struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	WinratePercent float64 `json:"winratePercent" yaml:"winratePercent"`
	WindowSize     int     `json:"windowSize" yaml:"windowSize"`
}

// Variant2Config ramps the win probability down by StepPercent after every win, never
// below MinPercent, and resets it to StartPercent after a loss. CurrentPercent is the
// only field changed outside of admin action.
type Variant2Config struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	StartPercent   float64 `json:"startPercent" yaml:"startPercent"`
	MinPercent     float64 `json:"minPercent" yaml:"minPercent"`
	StepPercent    float64 `json:"stepPercent" yaml:"stepPercent"`
	CurrentPercent float64 `json:"currentPercent" yaml:"currentPercent"`
}

// WinLossConfig is the per-user outcome-control configuration. Both variants stay
// resident so switching never discards the inactive variant's settings.
type WinLossConfig struct {
	Enabled       bool           `json:"enabled" yaml:"enabled"`
	ActiveVariant Variant        `json:"activeVariant" yaml:"activeVariant"`
	Variant1      Variant1Config `json:"variant1" yaml:"variant1"`
	Variant2      Variant2Config `json:"variant2" yaml:"variant2"`
}

type WindowTrade struct {
	TradeID   string    `json:"tradeId"`
	Outcome   Outcome   `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

type Variant1Stats struct {
	WindowTrades    []WindowTrade `json:"windowTrades"`
	WindowWinCount  int           `json:"windowWinCount"`
	WindowLossCount int           `json:"windowLossCount"`
	TotalWins       int           `json:"totalWins"`
	TotalLosses     int           `json:"totalLosses"`
	LastUpdated     time.Time     `json:"lastUpdated"`
}

type Variant2Stats struct {
	ConsecutiveWins int       `json:"consecutiveWins"`
	TotalWins       int       `json:"totalWins"`
	TotalLosses     int       `json:"totalLosses"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// WinLossStats holds the statistics of both variants. TotalWins and TotalLosses sum
// the two variants for display.
type WinLossStats struct {
	Variant1    Variant1Stats `json:"variant1"`
	Variant2    Variant2Stats `json:"variant2"`
	TotalWins   int           `json:"totalWins"`
	TotalLosses int           `json:"totalLosses"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// WinLossState is what the persistence layer loads and saves per user.
type WinLossState struct {
	UserID    string
	Config    WinLossConfig
	Stats     WinLossStats
	CreatedAt time.Time
	UpdatedAt time.Time
}
