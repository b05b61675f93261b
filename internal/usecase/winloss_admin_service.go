package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"winloss_server/internal/domain"
	"winloss_server/internal/infra/metrics"
	"winloss_server/internal/winloss"
)

var ErrInvalidConfig = errors.New("invalid winloss config")

// WinLossAdminService is the operator surface over per-user outcome control. Every
// write is validated before it is saved and runs under the user's lock so it never
// interleaves with a settlement.
type WinLossAdminService struct {
	repo    domain.WinLossRepository
	locker  domain.UserLocker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewWinLossAdminService(repo domain.WinLossRepository, locker domain.UserLocker, m *metrics.Metrics, logger zerolog.Logger) (*WinLossAdminService, error) {
	if repo == nil {
		return nil, errors.New("winloss repository required")
	}
	if locker == nil {
		return nil, errors.New("user locker required")
	}
	return &WinLossAdminService{
		repo:    repo,
		locker:  locker,
		metrics: m,
		logger:  logger,
	}, nil
}

// GetState returns the stored state, or the defaults for a user that was never
// enrolled. Reading does not enroll the user.
func (s *WinLossAdminService) GetState(ctx context.Context, userID string) (domain.WinLossState, error) {
	if err := requireUserID(userID); err != nil {
		return domain.WinLossState{}, err
	}

	return loadOrEnroll(ctx, s.repo, userID)
}

// SwitchVariant activates the given variant for the user, or turns outcome control
// off for VariantNone. Statistics are kept.
func (s *WinLossAdminService) SwitchVariant(ctx context.Context, userID string, variant domain.Variant) (domain.WinLossState, error) {
	if err := requireUserID(userID); err != nil {
		return domain.WinLossState{}, err
	}
	if !variant.Valid() {
		s.metrics.ObserveRejected("switch")
		return domain.WinLossState{}, fmt.Errorf("%w: %w", ErrInvalidConfig, winloss.ErrUnknownVariant)
	}

	return s.mutate(ctx, userID, func(state *domain.WinLossState) error {
		next := winloss.SwitchVariant(state.Config, variant)
		if err := winloss.ValidateVariantConfig(next); err != nil {
			s.metrics.ObserveRejected("switch")
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		state.Config = next
		s.metrics.ObserveSwitch(variant)
		return nil
	})
}

// UpdateConfig replaces the user's configuration. Variant 2's current percent is
// managed by settlements and is only reset to the start percent when the start
// changes or the current value falls outside the new range.
func (s *WinLossAdminService) UpdateConfig(ctx context.Context, userID string, cfg domain.WinLossConfig) (domain.WinLossState, error) {
	if err := requireUserID(userID); err != nil {
		return domain.WinLossState{}, err
	}

	return s.mutate(ctx, userID, func(state *domain.WinLossState) error {
		cfg.Variant2 = carryCurrentPercent(state.Config.Variant2, cfg.Variant2)
		if err := winloss.ValidateVariantConfig(cfg); err != nil {
			s.metrics.ObserveRejected("update")
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}

		if cfg.Variant1.WindowSize >= 1 && len(state.Stats.Variant1.WindowTrades) > cfg.Variant1.WindowSize {
			state.Stats = winloss.ResizeWindow(state.Stats, cfg.Variant1.WindowSize)
		}
		state.Config = cfg
		return nil
	})
}

// ResetStats clears every counter and the variant 1 window. Variant 2 restarts at
// its start percent.
func (s *WinLossAdminService) ResetStats(ctx context.Context, userID string) (domain.WinLossState, error) {
	if err := requireUserID(userID); err != nil {
		return domain.WinLossState{}, err
	}

	return s.mutate(ctx, userID, func(state *domain.WinLossState) error {
		state.Stats = winloss.NewStats()
		state.Config.Variant2.CurrentPercent = state.Config.Variant2.StartPercent
		return nil
	})
}

func (s *WinLossAdminService) mutate(ctx context.Context, userID string, apply func(*domain.WinLossState) error) (domain.WinLossState, error) {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return domain.WinLossState{}, fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer unlock()

	state, err := loadOrEnroll(ctx, s.repo, userID)
	if err != nil {
		return domain.WinLossState{}, err
	}
	if err := apply(&state); err != nil {
		return domain.WinLossState{}, err
	}
	if err := s.repo.SaveState(ctx, state); err != nil {
		return domain.WinLossState{}, fmt.Errorf("save winloss state: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Bool("enabled", state.Config.Enabled).
		Str("variant", metrics.VariantLabel(state.Config.ActiveVariant)).
		Msg("winloss state updated")

	return state, nil
}

func carryCurrentPercent(prev, next domain.Variant2Config) domain.Variant2Config {
	next.CurrentPercent = prev.CurrentPercent
	if next.StartPercent != prev.StartPercent ||
		next.CurrentPercent < next.MinPercent ||
		next.CurrentPercent > next.StartPercent {
		next.CurrentPercent = next.StartPercent
	}
	return next
}

// loadOrEnroll returns the stored state or the defaults for a new user. Callers that
// persist the result hold the user's lock.
func loadOrEnroll(ctx context.Context, repo domain.WinLossRepository, userID string) (domain.WinLossState, error) {
	state, err := repo.GetState(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return defaultState(userID), nil
	}
	if err != nil {
		return domain.WinLossState{}, fmt.Errorf("load winloss state: %w", err)
	}
	return state, nil
}

func defaultState(userID string) domain.WinLossState {
	return domain.WinLossState{
		UserID: userID,
		Config: winloss.DefaultConfig(),
		Stats:  winloss.NewStats(),
	}
}

func requireUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidConfig)
	}
	return nil
}
