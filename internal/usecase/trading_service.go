package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"winloss_server/internal/domain"
	"winloss_server/internal/idgen"
	"winloss_server/internal/infra/metrics"
	"winloss_server/internal/winloss"
)

const (
	minTradeDuration = 5 * time.Second
	maxTradeDuration = 24 * time.Hour

	defaultListLimit = 100
	maxListLimit     = 1000
	dueBatchSize     = 500
)

var ErrInvalidTrade = errors.New("invalid trade")

type TradingDeps struct {
	Trades   domain.TradeRepository
	Accounts domain.AccountRepository
	WinLoss  domain.WinLossRepository
	Tx       domain.Transactor
	Feed     domain.PriceFeed
	Locker   domain.UserLocker
	Engine   *winloss.Engine
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger

	InitialBalance decimal.Decimal
	PayoutPercent  decimal.Decimal
}

// TradingService opens demo trades and settles them through the outcome-control engine.
type TradingService struct {
	trades   domain.TradeRepository
	accounts domain.AccountRepository
	winloss  domain.WinLossRepository
	tx       domain.Transactor
	feed     domain.PriceFeed
	locker   domain.UserLocker
	engine   *winloss.Engine
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	initialBalance decimal.Decimal
	payoutPercent  decimal.Decimal

	now   func() time.Time
	newID func() (string, error)
}

func NewTradingService(deps TradingDeps) (*TradingService, error) {
	if deps.Trades == nil {
		return nil, errors.New("trade repository required")
	}
	if deps.Accounts == nil {
		return nil, errors.New("account repository required")
	}
	if deps.WinLoss == nil {
		return nil, errors.New("winloss repository required")
	}
	if deps.Tx == nil {
		return nil, errors.New("transactor required")
	}
	if deps.Feed == nil {
		return nil, errors.New("price feed required")
	}
	if deps.Locker == nil {
		return nil, errors.New("user locker required")
	}
	if deps.Engine == nil {
		return nil, errors.New("winloss engine required")
	}
	if !deps.PayoutPercent.IsPositive() {
		return nil, errors.New("payout percent must be positive")
	}

	return &TradingService{
		trades:         deps.Trades,
		accounts:       deps.Accounts,
		winloss:        deps.WinLoss,
		tx:             deps.Tx,
		feed:           deps.Feed,
		locker:         deps.Locker,
		engine:         deps.Engine,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		initialBalance: deps.InitialBalance,
		payoutPercent:  deps.PayoutPercent,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          idgen.New,
	}, nil
}

type OpenTradeRequest struct {
	UserID    string
	Symbol    string
	Direction domain.TradeDirection
	Stake     decimal.Decimal
	Duration  time.Duration
}

func (r OpenTradeRequest) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidTrade)
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol required", ErrInvalidTrade)
	}
	if !r.Direction.Valid() {
		return fmt.Errorf("%w: direction must be up or down", ErrInvalidTrade)
	}
	if !r.Stake.IsPositive() {
		return fmt.Errorf("%w: stake must be positive", ErrInvalidTrade)
	}
	if r.Duration < minTradeDuration || r.Duration > maxTradeDuration {
		return fmt.Errorf("%w: duration must be between %s and %s", ErrInvalidTrade, minTradeDuration, maxTradeDuration)
	}
	return nil
}

// OpenTrade debits the stake from the demo balance and records the trade at the
// current quote.
func (s *TradingService) OpenTrade(ctx context.Context, req OpenTradeRequest) (domain.Trade, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := req.validate(); err != nil {
		return domain.Trade{}, err
	}

	unlock, err := s.locker.Lock(ctx, req.UserID)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("lock user %s: %w", req.UserID, err)
	}
	defer unlock()

	account, err := s.loadAccount(ctx, s.accounts, req.UserID)
	if err != nil {
		return domain.Trade{}, err
	}
	if account.DemoBalance.LessThan(req.Stake) {
		return domain.Trade{}, domain.ErrInsufficientFunds
	}

	quote, err := s.feed.Quote(ctx, req.Symbol)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("quote %s: %w", req.Symbol, err)
	}

	id, err := s.newID()
	if err != nil {
		return domain.Trade{}, err
	}

	now := s.now()
	trade := domain.Trade{
		ID:            id,
		UserID:        req.UserID,
		Symbol:        req.Symbol,
		Direction:     req.Direction,
		Stake:         req.Stake,
		PayoutPercent: s.payoutPercent,
		EntryPrice:    quote.Price,
		Status:        domain.TradeStatusOpen,
		Payout:        decimal.Zero,
		OpenedAt:      now,
		ExpiresAt:     now.Add(req.Duration),
	}

	account.DemoBalance = account.DemoBalance.Sub(req.Stake)
	err = s.tx.InTx(ctx, func(ctx context.Context, stores domain.Stores) error {
		if err := stores.Trades.CreateTrade(ctx, trade); err != nil {
			return fmt.Errorf("create trade: %w", err)
		}
		if err := stores.Accounts.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("debit stake: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Trade{}, err
	}

	s.metrics.ObserveOpen()
	s.logger.Debug().
		Str("user_id", trade.UserID).
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("stake", trade.Stake.String()).
		Msg("trade opened")

	return trade, nil
}

// SettleTrade closes an open trade. When outcome control is active for the user the
// engine's required outcome replaces the market result.
func (s *TradingService) SettleTrade(ctx context.Context, tradeID string) (domain.Trade, error) {
	if strings.TrimSpace(tradeID) == "" {
		return domain.Trade{}, fmt.Errorf("%w: trade id required", ErrInvalidTrade)
	}

	trade, err := s.trades.GetTrade(ctx, tradeID)
	if err != nil {
		return domain.Trade{}, err
	}

	unlock, err := s.locker.Lock(ctx, trade.UserID)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("lock user %s: %w", trade.UserID, err)
	}
	defer unlock()

	// Re-read under the lock; a concurrent settle may have won the race.
	trade, err = s.trades.GetTrade(ctx, tradeID)
	if err != nil {
		return domain.Trade{}, err
	}
	if trade.Status == domain.TradeStatusSettled {
		return trade, domain.ErrTradeSettled
	}

	settled, err := s.settleLocked(ctx, trade)
	if err != nil {
		s.metrics.ObserveSettleError()
		return domain.Trade{}, err
	}
	return settled, nil
}

// settleLocked writes the statistics, the settled trade and the payout in one
// transaction so a failed step leaves the trade open and the statistics untouched.
func (s *TradingService) settleLocked(ctx context.Context, trade domain.Trade) (domain.Trade, error) {
	quote, err := s.feed.Quote(ctx, trade.Symbol)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("quote %s: %w", trade.Symbol, err)
	}
	trade.ExitPrice = quote.Price

	var (
		state    domain.WinLossState
		required domain.Outcome
	)
	err = s.tx.InTx(ctx, func(ctx context.Context, stores domain.Stores) error {
		var err error
		state, err = loadOrEnroll(ctx, stores.WinLoss, trade.UserID)
		if err != nil {
			return err
		}

		required = s.engine.DetermineRequiredOutcome(state.Config, state.Stats)
		outcome := trade.MarketOutcome()
		if required != domain.OutcomeNone {
			outcome = required
		}

		update := s.engine.UpdateStats(state.Config, state.Stats, trade.ID, outcome)
		state.Stats = update.Stats
		if update.Config != nil {
			state.Config = *update.Config
		}
		if err := stores.WinLoss.SaveState(ctx, state); err != nil {
			return fmt.Errorf("save winloss state: %w", err)
		}

		settledAt := s.now()
		trade.Status = domain.TradeStatusSettled
		trade.Outcome = outcome
		trade.Forced = required != domain.OutcomeNone
		trade.SettledAt = &settledAt
		trade.Payout = decimal.Zero
		if outcome == domain.OutcomeWin {
			trade.Payout = trade.GrossPayout()
		}
		if err := stores.Trades.UpdateTrade(ctx, trade); err != nil {
			return fmt.Errorf("update trade: %w", err)
		}

		if !trade.Payout.IsPositive() {
			return nil
		}
		account, err := s.loadAccount(ctx, stores.Accounts, trade.UserID)
		if err != nil {
			return err
		}
		account.DemoBalance = account.DemoBalance.Add(trade.Payout)
		if err := stores.Accounts.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("credit payout: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Trade{}, err
	}

	s.metrics.ObserveDecision(state.Config.ActiveVariant, required)
	s.metrics.ObserveSettlement(trade.Outcome, trade.Forced)
	s.logger.Info().
		Str("user_id", trade.UserID).
		Str("trade_id", trade.ID).
		Str("outcome", string(trade.Outcome)).
		Bool("forced", trade.Forced).
		Str("variant", metrics.VariantLabel(state.Config.ActiveVariant)).
		Str("payout", trade.Payout.String()).
		Msg("trade settled")

	return trade, nil
}

// SettleDue settles every open trade whose expiry has passed. Failures are logged
// and do not stop the batch.
func (s *TradingService) SettleDue(ctx context.Context) (int, error) {
	due, err := s.trades.ListDueTrades(ctx, s.now(), dueBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list due trades: %w", err)
	}

	settled := 0
	var errs []error
	for _, trade := range due {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.SettleTrade(ctx, trade.ID); err != nil {
			if errors.Is(err, domain.ErrTradeSettled) {
				continue
			}
			s.logger.Error().Err(err).Str("trade_id", trade.ID).Msg("settle due trade failed")
			errs = append(errs, fmt.Errorf("trade %s: %w", trade.ID, err))
			continue
		}
		settled++
	}

	return settled, errors.Join(errs...)
}

func (s *TradingService) ListTrades(ctx context.Context, userID string, limit int) ([]domain.Trade, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidTrade)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.trades.ListTrades(ctx, userID, limit)
}

// GetAccount returns the user's demo account, opening one on first access.
func (s *TradingService) GetAccount(ctx context.Context, userID string) (domain.Account, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Account{}, fmt.Errorf("%w: user id required", ErrInvalidTrade)
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer unlock()

	return s.loadAccount(ctx, s.accounts, userID)
}

// ResetAccount restores the demo balance to the configured starting amount.
func (s *TradingService) ResetAccount(ctx context.Context, userID string) (domain.Account, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Account{}, fmt.Errorf("%w: user id required", ErrInvalidTrade)
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer unlock()

	account := domain.NewAccount(userID, s.initialBalance)
	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("reset account: %w", err)
	}
	return account, nil
}

// loadAccount must be called with the user's lock held.
func (s *TradingService) loadAccount(ctx context.Context, repo domain.AccountRepository, userID string) (domain.Account, error) {
	account, err := repo.GetAccount(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("load account: %w", err)
	}

	account = domain.NewAccount(userID, s.initialBalance)
	if err := repo.SaveAccount(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("open account: %w", err)
	}
	return account, nil
}
