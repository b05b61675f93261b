package winloss

import (
	"math"

	"winloss_server/internal/domain"
)

// Update is the result of recording a settled trade. Config is set only when the
// active variant carries per-trade configuration state (variant 2).
type Update struct {
	Stats  domain.WinLossStats
	Config *domain.WinLossConfig
}

// UpdateStats records a settled trade against the active variant. The outcome is
// trusted as given. A trade already in the variant 1 window is not counted again.
// Inputs are never modified.
func (e *Engine) UpdateStats(cfg domain.WinLossConfig, stats domain.WinLossStats, tradeID string, outcome domain.Outcome) Update {
	switch cfg.ActiveVariant {
	case domain.Variant1:
		return Update{Stats: e.updateVariant1(cfg.Variant1, stats, tradeID, outcome)}
	case domain.Variant2:
		next, nextCfg := e.updateVariant2(cfg, stats, outcome)
		return Update{Stats: next, Config: &nextCfg}
	default:
		return Update{Stats: stats}
	}
}

func (e *Engine) updateVariant1(cfg domain.Variant1Config, stats domain.WinLossStats, tradeID string, outcome domain.Outcome) domain.WinLossStats {
	v1 := stats.Variant1
	for _, wt := range v1.WindowTrades {
		if wt.TradeID == tradeID {
			return stats
		}
	}

	now := e.now()
	window := make([]domain.WindowTrade, 0, len(v1.WindowTrades)+1)
	window = append(window, v1.WindowTrades...)
	window = append(window, domain.WindowTrade{TradeID: tradeID, Outcome: outcome, Timestamp: now})
	if len(window) > cfg.WindowSize {
		window = window[1:]
	}

	v1.WindowTrades = window
	v1.WindowWinCount, v1.WindowLossCount = countOutcomes(window)

	switch outcome {
	case domain.OutcomeWin:
		v1.TotalWins++
		stats.TotalWins++
	case domain.OutcomeLoss:
		v1.TotalLosses++
		stats.TotalLosses++
	}
	v1.LastUpdated = now

	stats.Variant1 = v1
	stats.LastUpdated = now
	return stats
}

func (e *Engine) updateVariant2(cfg domain.WinLossConfig, stats domain.WinLossStats, outcome domain.Outcome) (domain.WinLossStats, domain.WinLossConfig) {
	now := e.now()
	v2 := stats.Variant2
	params := cfg.Variant2

	switch outcome {
	case domain.OutcomeWin:
		v2.ConsecutiveWins++
		params.CurrentPercent = math.Max(params.MinPercent, params.CurrentPercent-params.StepPercent)
		v2.TotalWins++
		stats.TotalWins++
	case domain.OutcomeLoss:
		v2.ConsecutiveWins = 0
		params.CurrentPercent = params.StartPercent
		v2.TotalLosses++
		stats.TotalLosses++
	}
	v2.LastUpdated = now

	stats.Variant2 = v2
	stats.LastUpdated = now
	cfg.Variant2 = params
	return stats, cfg
}

// ResizeWindow drops the oldest variant 1 window entries until at most size remain.
func ResizeWindow(stats domain.WinLossStats, size int) domain.WinLossStats {
	if size < 0 {
		size = 0
	}
	trades := stats.Variant1.WindowTrades
	if len(trades) <= size {
		return stats
	}
	window := make([]domain.WindowTrade, size)
	copy(window, trades[len(trades)-size:])
	stats.Variant1.WindowTrades = window
	stats.Variant1.WindowWinCount, stats.Variant1.WindowLossCount = countOutcomes(window)
	return stats
}
