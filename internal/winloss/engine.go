// Package winloss decides forced trade outcomes per user and keeps the rolling
// statistics those decisions are based on. Every function is pure: callers load the
// configuration and statistics, pass them in, and persist what comes back.
package winloss

import (
	"math"
	"time"

	"winloss_server/internal/domain"
)

type Engine struct {
	rand RandomSource
	now  func() time.Time
}

type Option func(*Engine)

// WithRandomSource replaces the draw used by variant 2.
func WithRandomSource(src RandomSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.rand = src
		}
	}
}

// WithClock replaces the time source used to stamp statistics.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rand: globalSource{},
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetermineRequiredOutcome returns the outcome the next trade must have, or
// OutcomeNone when the market result should stand.
func (e *Engine) DetermineRequiredOutcome(cfg domain.WinLossConfig, stats domain.WinLossStats) domain.Outcome {
	if !cfg.Enabled || cfg.ActiveVariant == domain.VariantNone {
		return domain.OutcomeNone
	}

	switch cfg.ActiveVariant {
	case domain.Variant1:
		if !cfg.Variant1.Enabled {
			return domain.OutcomeNone
		}
		return decideVariant1(cfg.Variant1, stats.Variant1)
	case domain.Variant2:
		if !cfg.Variant2.Enabled {
			return domain.OutcomeNone
		}
		return e.decideVariant2(cfg.Variant2)
	default:
		return domain.OutcomeNone
	}
}

// RequiredWins is the number of wins the variant 1 window must hold to meet the target.
func RequiredWins(cfg domain.Variant1Config) int {
	return int(math.Ceil(float64(cfg.WindowSize) * cfg.WinratePercent / 100))
}

func decideVariant1(cfg domain.Variant1Config, stats domain.Variant1Stats) domain.Outcome {
	required := RequiredWins(cfg)
	wins, losses := countOutcomes(stats.WindowTrades)

	if wins < required {
		return domain.OutcomeWin
	}
	if losses < cfg.WindowSize-required {
		return domain.OutcomeLoss
	}
	// Both thresholds are exhausted; wins >= required is already established here.
	return domain.OutcomeLoss
}

func (e *Engine) decideVariant2(cfg domain.Variant2Config) domain.Outcome {
	r := e.rand.Float64() * 100
	if r < cfg.CurrentPercent {
		return domain.OutcomeWin
	}
	return domain.OutcomeLoss
}

func countOutcomes(trades []domain.WindowTrade) (wins, losses int) {
	for _, t := range trades {
		switch t.Outcome {
		case domain.OutcomeWin:
			wins++
		case domain.OutcomeLoss:
			losses++
		}
	}
	return wins, losses
}
