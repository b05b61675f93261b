package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"winloss_server/internal/domain"
	"winloss_server/internal/winloss"
)

type simulateOptions struct {
	configPath    string
	trades        int
	seed          uint64
	marketWinrate float64
	output        string
}

type simulationResult struct {
	Trades        int                  `json:"trades" yaml:"trades"`
	Forced        int                  `json:"forced" yaml:"forced"`
	Wins          int                  `json:"wins" yaml:"wins"`
	Losses        int                  `json:"losses" yaml:"losses"`
	ObservedRate  float64              `json:"observedWinratePercent" yaml:"observedWinratePercent"`
	LongestStreak int                  `json:"longestWinStreak" yaml:"longestWinStreak"`
	Config        domain.WinLossConfig `json:"config" yaml:"config"`
	Stats         domain.WinLossStats  `json:"stats" yaml:"stats"`
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run settlements through the engine and print the resulting statistics",
		Long: `Simulate feeds a number of trades through the outcome-control engine using the
configuration from a YAML file. When no outcome is forced, the market result is drawn
with the given market winrate. The same seed always produces the same run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := winloss.ValidateVariantConfig(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if opts.trades < 1 {
				return fmt.Errorf("--trades must be at least 1")
			}
			if opts.marketWinrate < 0 || opts.marketWinrate > 100 {
				return fmt.Errorf("--market-winrate must be between 0 and 100")
			}

			result := runSimulation(cfg, opts.trades, opts.seed, opts.marketWinrate)
			return writeResult(cmd.OutOrStdout(), opts.output, result)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML outcome-control config (required)")
	cmd.Flags().IntVarP(&opts.trades, "trades", "n", 100, "number of trades to settle")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "seed for variant 2 and market draws")
	cmd.Flags().Float64Var(&opts.marketWinrate, "market-winrate", 50, "win percent of the market when no outcome is forced")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format (text, json, yaml)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runSimulation(cfg domain.WinLossConfig, trades int, seed uint64, marketWinrate float64) simulationResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	engine := winloss.NewEngine(
		winloss.WithRandomSource(winloss.NewSeededSource(seed)),
		winloss.WithClock(func() time.Time {
			tick++
			return start.Add(time.Duration(tick) * time.Minute)
		}),
	)
	market := winloss.NewSeededSource(seed + 1)

	stats := winloss.NewStats()
	result := simulationResult{Trades: trades}
	streak := 0

	for i := 1; i <= trades; i++ {
		outcome := engine.DetermineRequiredOutcome(cfg, stats)
		if outcome != domain.OutcomeNone {
			result.Forced++
		} else if market.Float64()*100 < marketWinrate {
			outcome = domain.OutcomeWin
		} else {
			outcome = domain.OutcomeLoss
		}

		update := engine.UpdateStats(cfg, stats, fmt.Sprintf("sim-%d", i), outcome)
		stats = update.Stats
		if update.Config != nil {
			cfg = *update.Config
		}

		if outcome == domain.OutcomeWin {
			result.Wins++
			streak++
			if streak > result.LongestStreak {
				result.LongestStreak = streak
			}
		} else {
			result.Losses++
			streak = 0
		}
	}

	result.ObservedRate = float64(result.Wins) * 100 / float64(trades)
	result.Config = cfg
	result.Stats = stats
	return result
}

func writeResult(w io.Writer, format string, r simulationResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "Simulation complete\n")
	fmt.Fprintf(w, "  Trades: %d (forced %d)\n", r.Trades, r.Forced)
	fmt.Fprintf(w, "  Wins: %d  Losses: %d  Winrate: %.2f%%\n", r.Wins, r.Losses, r.ObservedRate)
	fmt.Fprintf(w, "  Longest win streak: %d\n", r.LongestStreak)
	switch r.Config.ActiveVariant {
	case domain.Variant1:
		v1 := r.Stats.Variant1
		fmt.Fprintf(w, "  Variant 1 window: %d wins / %d losses of %d (target %d wins)\n",
			v1.WindowWinCount, v1.WindowLossCount, r.Config.Variant1.WindowSize, winloss.RequiredWins(r.Config.Variant1))
	case domain.Variant2:
		fmt.Fprintf(w, "  Variant 2: current %.2f%%, consecutive wins %d\n",
			r.Config.Variant2.CurrentPercent, r.Stats.Variant2.ConsecutiveWins)
	default:
		fmt.Fprintf(w, "  Outcome control disabled\n")
	}
	return nil
}
