package winloss

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winloss_server/internal/domain"
)

func TestUpdateStats_NoActiveVariantIsNoop(t *testing.T) {
	e := newTestEngine()
	_, stats := feed(e, variant1Config(50, 4), NewStats(), domain.OutcomeWin)

	upd := e.UpdateStats(DefaultConfig(), stats, "t9", domain.OutcomeLoss)
	assert.Nil(t, upd.Config)
	assert.Equal(t, stats, upd.Stats)
}

func TestUpdateStats_Variant1WindowBound(t *testing.T) {
	e := newTestEngine()
	cfg := variant1Config(60, 5)
	stats := NewStats()

	var ids []string
	for i := 0; i < 23; i++ {
		id := fmt.Sprintf("t%d", i)
		outcome := domain.OutcomeWin
		if i%3 == 0 {
			outcome = domain.OutcomeLoss
		}
		upd := e.UpdateStats(cfg, stats, id, outcome)
		require.Nil(t, upd.Config)
		stats = upd.Stats
		ids = append(ids, id)

		window := stats.Variant1.WindowTrades
		require.LessOrEqual(t, len(window), cfg.Variant1.WindowSize)

		start := len(ids) - len(window)
		for j, wt := range window {
			require.Equal(t, ids[start+j], wt.TradeID)
		}

		wins, losses := countOutcomes(window)
		require.Equal(t, wins, stats.Variant1.WindowWinCount)
		require.Equal(t, losses, stats.Variant1.WindowLossCount)
	}

	assert.Equal(t, 23, stats.Variant1.TotalWins+stats.Variant1.TotalLosses)
	assert.Equal(t, 8, stats.Variant1.TotalLosses)
	assert.Equal(t, stats.Variant1.TotalWins, stats.TotalWins)
	assert.Equal(t, stats.Variant1.TotalLosses, stats.TotalLosses)
	assert.Equal(t, fixedNow, stats.Variant1.LastUpdated)
	assert.Equal(t, fixedNow, stats.LastUpdated)
}

func TestUpdateStats_Variant1Scenario(t *testing.T) {
	e := newTestEngine()
	cfg := variant1Config(50, 4)
	stats := NewStats()

	expected := []domain.Outcome{
		domain.OutcomeWin,
		domain.OutcomeWin,
		domain.OutcomeLoss,
		domain.OutcomeLoss,
	}
	for i, want := range expected {
		got := e.DetermineRequiredOutcome(cfg, stats)
		require.Equal(t, want, got, "decision %d", i+1)

		stats = e.UpdateStats(cfg, stats, fmt.Sprintf("t%d", i+1), got).Stats
		require.Len(t, stats.Variant1.WindowTrades, i+1)
		require.Equal(t, "t1", stats.Variant1.WindowTrades[0].TradeID)
	}
	assert.Equal(t, 2, stats.TotalWins)
	assert.Equal(t, 2, stats.TotalLosses)

	// Window is full and on target: the engine falls back to a loss.
	got := e.DetermineRequiredOutcome(cfg, stats)
	require.Equal(t, domain.OutcomeLoss, got)

	stats = e.UpdateStats(cfg, stats, "t5", got).Stats
	require.Len(t, stats.Variant1.WindowTrades, 4)
	assert.Equal(t, "t2", stats.Variant1.WindowTrades[0].TradeID)
	assert.Equal(t, 1, stats.Variant1.WindowWinCount)
	assert.Equal(t, 3, stats.Variant1.WindowLossCount)

	// The evicted win puts the window behind target again.
	assert.Equal(t, domain.OutcomeWin, e.DetermineRequiredOutcome(cfg, stats))
}

func TestUpdateStats_Variant1SingleEvictionPerInsert(t *testing.T) {
	e := newTestEngine()
	cfg := variant1Config(50, 2)

	stats := NewStats()
	stats.Variant1.WindowTrades = []domain.WindowTrade{
		{TradeID: "a", Outcome: domain.OutcomeWin},
		{TradeID: "b", Outcome: domain.OutcomeWin},
		{TradeID: "c", Outcome: domain.OutcomeLoss},
		{TradeID: "d", Outcome: domain.OutcomeLoss},
	}

	stats = e.UpdateStats(cfg, stats, "e", domain.OutcomeWin).Stats
	require.Len(t, stats.Variant1.WindowTrades, 4)
	assert.Equal(t, "b", stats.Variant1.WindowTrades[0].TradeID)
	assert.Equal(t, "e", stats.Variant1.WindowTrades[3].TradeID)
}

func TestUpdateStats_Variant1IgnoresRecordedTrade(t *testing.T) {
	e := newTestEngine()
	cfg := variant1Config(50, 4)
	_, stats := feed(e, cfg, NewStats(), domain.OutcomeWin, domain.OutcomeLoss)

	again := e.UpdateStats(cfg, stats, "t1", domain.OutcomeWin)
	assert.Equal(t, stats, again.Stats)
	assert.Len(t, again.Stats.Variant1.WindowTrades, 2)
	assert.Equal(t, 1, again.Stats.TotalWins)
	assert.Equal(t, 1, again.Stats.Variant1.TotalWins)
}

func TestUpdateStats_DoesNotMutateInputs(t *testing.T) {
	e := newTestEngine()
	cfg := variant1Config(50, 4)

	backing := make([]domain.WindowTrade, 1, 4)
	backing[0] = domain.WindowTrade{TradeID: "a", Outcome: domain.OutcomeWin}
	stats := NewStats()
	stats.Variant1.WindowTrades = backing
	stats.Variant1.TotalWins = 1
	stats.TotalWins = 1

	upd := e.UpdateStats(cfg, stats, "b", domain.OutcomeLoss)
	require.Len(t, upd.Stats.Variant1.WindowTrades, 2)

	assert.Len(t, stats.Variant1.WindowTrades, 1)
	assert.Equal(t, domain.WindowTrade{}, backing[:2][1])
	assert.Equal(t, 1, stats.TotalWins)
	assert.Equal(t, 0, stats.TotalLosses)

	v2cfg := variant2Config(50, 10, 10)
	upd = e.UpdateStats(v2cfg, NewStats(), "c", domain.OutcomeWin)
	require.NotNil(t, upd.Config)
	assert.Equal(t, 40.0, upd.Config.Variant2.CurrentPercent)
	assert.Equal(t, 50.0, v2cfg.Variant2.CurrentPercent)
}

func TestUpdateStats_Variant2Ramp(t *testing.T) {
	e := newTestEngine()
	cfg := variant2Config(50, 10, 10)
	stats := NewStats()

	for i, want := range []float64{40, 30, 20} {
		upd := e.UpdateStats(cfg, stats, fmt.Sprintf("w%d", i), domain.OutcomeWin)
		require.NotNil(t, upd.Config)
		cfg, stats = *upd.Config, upd.Stats
		require.Equal(t, want, cfg.Variant2.CurrentPercent)
		require.Equal(t, i+1, stats.Variant2.ConsecutiveWins)
	}

	upd := e.UpdateStats(cfg, stats, "l", domain.OutcomeLoss)
	require.NotNil(t, upd.Config)
	cfg, stats = *upd.Config, upd.Stats
	assert.Equal(t, 50.0, cfg.Variant2.CurrentPercent)
	assert.Equal(t, 0, stats.Variant2.ConsecutiveWins)
	assert.Equal(t, 3, stats.Variant2.TotalWins)
	assert.Equal(t, 1, stats.Variant2.TotalLosses)
	assert.Equal(t, 3, stats.TotalWins)
	assert.Equal(t, 1, stats.TotalLosses)
	assert.Empty(t, stats.Variant1.WindowTrades)
}

func TestUpdateStats_Variant2ClampsAtMinimum(t *testing.T) {
	e := newTestEngine()
	cfg := variant2Config(50, 10, 10)

	cfg, _ = feed(e, cfg, NewStats(), repeat(domain.OutcomeWin, 8)...)
	assert.Equal(t, 10.0, cfg.Variant2.CurrentPercent)

	cfg.Variant2.CurrentPercent = 15
	cfg, _ = feed(e, cfg, NewStats(), domain.OutcomeWin)
	assert.Equal(t, 10.0, cfg.Variant2.CurrentPercent)
}

func TestUpdateStats_SwitchingKeepsHistory(t *testing.T) {
	e := newTestEngine()
	cfg := variant1Config(50, 4)

	_, stats := feed(e, cfg, NewStats(), domain.OutcomeWin, domain.OutcomeLoss)
	v1 := stats.Variant1

	cfg = SwitchVariant(cfg, domain.Variant2)
	cfg, stats = feed(e, cfg, stats, domain.OutcomeWin)
	assert.Equal(t, v1, stats.Variant1)
	assert.Equal(t, 1, stats.Variant2.TotalWins)
	assert.Equal(t, 2, stats.TotalWins)
	assert.Equal(t, 1, stats.TotalLosses)

	cfg = SwitchVariant(cfg, domain.Variant1)
	stats = e.UpdateStats(cfg, stats, "t3", domain.OutcomeWin).Stats
	assert.Len(t, stats.Variant1.WindowTrades, 3)
	assert.Equal(t, 1, stats.Variant2.TotalWins)
}

func TestResizeWindow(t *testing.T) {
	e := newTestEngine()
	_, stats := feed(e, variant1Config(50, 6), NewStats(),
		domain.OutcomeWin, domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomeWin, domain.OutcomeLoss)

	same := ResizeWindow(stats, 10)
	assert.Equal(t, stats, same)

	resized := ResizeWindow(stats, 2)
	require.Len(t, resized.Variant1.WindowTrades, 2)
	assert.Equal(t, "t4", resized.Variant1.WindowTrades[0].TradeID)
	assert.Equal(t, "t5", resized.Variant1.WindowTrades[1].TradeID)
	assert.Equal(t, 1, resized.Variant1.WindowWinCount)
	assert.Equal(t, 1, resized.Variant1.WindowLossCount)
	assert.Equal(t, stats.Variant1.TotalWins, resized.Variant1.TotalWins)
	assert.Len(t, stats.Variant1.WindowTrades, 5)
}
