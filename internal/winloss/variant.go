package winloss

import (
	"errors"

	"winloss_server/internal/domain"
)

var (
	ErrVariant1Inactive     = errors.New("variant 1 is active but not enabled")
	ErrVariant2Inactive     = errors.New("variant 2 is active but not enabled")
	ErrVariantNotActive     = errors.New("a variant is enabled but not active")
	ErrWinrateOutOfRange    = errors.New("variant 1 winrate percent must be between 0 and 100")
	ErrWindowSizeTooSmall   = errors.New("variant 1 window size must be at least 1")
	ErrStartPercentRange    = errors.New("variant 2 start percent must be between 0 and 100")
	ErrMinPercentRange      = errors.New("variant 2 min percent must be between 0 and 100")
	ErrStepPercentNegative  = errors.New("variant 2 step percent must not be negative")
	ErrMinPercentAboveStart = errors.New("variant 2 min percent must not exceed start percent")
	ErrUnknownVariant       = errors.New("unknown variant")
)

// SwitchVariant enables exactly the given variant and disables the other one.
// VariantNone turns outcome control off. Settings and statistics of the inactive
// variant are kept.
func SwitchVariant(cfg domain.WinLossConfig, variant domain.Variant) domain.WinLossConfig {
	next := domain.WinLossConfig{
		Variant1: cfg.Variant1,
		Variant2: cfg.Variant2,
	}

	switch variant {
	case domain.Variant1:
		next.Enabled = true
		next.ActiveVariant = domain.Variant1
		next.Variant1.Enabled = true
		next.Variant2.Enabled = false
	case domain.Variant2:
		next.Enabled = true
		next.ActiveVariant = domain.Variant2
		next.Variant1.Enabled = false
		next.Variant2.Enabled = true
	default:
		next.Enabled = false
		next.ActiveVariant = domain.VariantNone
		next.Variant1.Enabled = false
		next.Variant2.Enabled = false
	}
	return next
}

// ValidateVariantConfig reports the first violated rule, or nil. It never corrects
// the configuration. Rules are checked in this order:
//
//  1. activeVariant is null, 1 or 2 (ErrUnknownVariant).
//  2. The active variant is enabled (ErrVariant1Inactive, ErrVariant2Inactive).
//  3. No inactive variant is enabled (ErrVariantNotActive).
//  4. Variant 1, when enabled: winratePercent in [0, 100], then windowSize >= 1.
//  5. Variant 2, when enabled: startPercent and minPercent in [0, 100], then
//     stepPercent >= 0, then minPercent <= startPercent.
//
// Rules 1 to 3 run first, so a config that enables an inactive variant is rejected
// with ErrVariantNotActive even when its numeric fields are also out of range.
func ValidateVariantConfig(cfg domain.WinLossConfig) error {
	if !cfg.ActiveVariant.Valid() {
		return ErrUnknownVariant
	}
	if cfg.ActiveVariant == domain.Variant1 && !cfg.Variant1.Enabled {
		return ErrVariant1Inactive
	}
	if cfg.ActiveVariant == domain.Variant2 && !cfg.Variant2.Enabled {
		return ErrVariant2Inactive
	}
	if (cfg.Variant1.Enabled && cfg.ActiveVariant != domain.Variant1) ||
		(cfg.Variant2.Enabled && cfg.ActiveVariant != domain.Variant2) {
		return ErrVariantNotActive
	}

	if cfg.Variant1.Enabled {
		if !inPercentRange(cfg.Variant1.WinratePercent) {
			return ErrWinrateOutOfRange
		}
		if cfg.Variant1.WindowSize < 1 {
			return ErrWindowSizeTooSmall
		}
	}

	if cfg.Variant2.Enabled {
		v2 := cfg.Variant2
		if !inPercentRange(v2.StartPercent) {
			return ErrStartPercentRange
		}
		if !inPercentRange(v2.MinPercent) {
			return ErrMinPercentRange
		}
		if !(v2.StepPercent >= 0) {
			return ErrStepPercentNegative
		}
		if v2.MinPercent > v2.StartPercent {
			return ErrMinPercentAboveStart
		}
	}

	return nil
}

func inPercentRange(p float64) bool {
	return p >= 0 && p <= 100
}

// DefaultConfig is the configuration of a newly enrolled user: outcome control off,
// both variants preset but disabled.
func DefaultConfig() domain.WinLossConfig {
	return domain.WinLossConfig{
		Variant1: domain.Variant1Config{
			WinratePercent: 50,
			WindowSize:     10,
		},
		Variant2: domain.Variant2Config{
			StartPercent:   50,
			MinPercent:     10,
			StepPercent:    10,
			CurrentPercent: 50,
		},
	}
}

func NewStats() domain.WinLossStats {
	return domain.WinLossStats{
		Variant1: domain.Variant1Stats{WindowTrades: []domain.WindowTrade{}},
	}
}
