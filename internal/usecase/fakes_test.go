package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"winloss_server/internal/domain"
)

type memWinLossRepo struct {
	mu     sync.Mutex
	states map[string]domain.WinLossState
	saves  int
}

func newMemWinLossRepo() *memWinLossRepo {
	return &memWinLossRepo{states: make(map[string]domain.WinLossState)}
}

func (r *memWinLossRepo) GetState(_ context.Context, userID string) (domain.WinLossState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[userID]
	if !ok {
		return domain.WinLossState{}, domain.ErrNotFound
	}
	return state, nil
}

func (r *memWinLossRepo) SaveState(_ context.Context, state domain.WinLossState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = state
	r.saves++
	return nil
}

type memTradeRepo struct {
	mu     sync.Mutex
	trades map[string]domain.Trade

	failUpdates int
}

func newMemTradeRepo() *memTradeRepo {
	return &memTradeRepo{trades: make(map[string]domain.Trade)}
}

func (r *memTradeRepo) CreateTrade(_ context.Context, trade domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades[trade.ID] = trade
	return nil
}

func (r *memTradeRepo) UpdateTrade(_ context.Context, trade domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return errors.New("trade store unavailable")
	}
	if _, ok := r.trades[trade.ID]; !ok {
		return domain.ErrNotFound
	}
	r.trades[trade.ID] = trade
	return nil
}

func (r *memTradeRepo) GetTrade(_ context.Context, tradeID string) (domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok {
		return domain.Trade{}, domain.ErrNotFound
	}
	return trade, nil
}

func (r *memTradeRepo) ListTrades(_ context.Context, userID string, limit int) ([]domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Trade
	for _, t := range r.trades {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTradeRepo) ListDueTrades(_ context.Context, now time.Time, limit int) ([]domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Trade
	for _, t := range r.trades {
		if t.Status == domain.TradeStatusOpen && !t.ExpiresAt.After(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account

	failSaves int
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[string]domain.Account)}
}

func (r *memAccountRepo) GetAccount(_ context.Context, userID string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[userID]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (r *memAccountRepo) SaveAccount(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaves > 0 {
		r.failSaves--
		return errors.New("account store unavailable")
	}
	r.accounts[account.UserID] = account
	return nil
}

// memTransactor snapshots the in-memory stores and restores them when fn fails.
// Tests serialise writers through the user lock, so the snapshot is not raced.
type memTransactor struct {
	trades   *memTradeRepo
	accounts *memAccountRepo
	states   *memWinLossRepo
}

func (m *memTransactor) InTx(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	trades := cloneMap(&m.trades.mu, m.trades.trades)
	accounts := cloneMap(&m.accounts.mu, m.accounts.accounts)
	states := cloneMap(&m.states.mu, m.states.states)

	err := fn(ctx, domain.Stores{Trades: m.trades, Accounts: m.accounts, WinLoss: m.states})
	if err == nil {
		return nil
	}

	m.trades.mu.Lock()
	m.trades.trades = trades
	m.trades.mu.Unlock()
	m.accounts.mu.Lock()
	m.accounts.accounts = accounts
	m.accounts.mu.Unlock()
	m.states.mu.Lock()
	m.states.states = states
	m.states.mu.Unlock()
	return err
}

func cloneMap[V any](mu *sync.Mutex, src map[string]V) map[string]V {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]V, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// stubFeed returns prices in order per symbol and repeats the last one.
type stubFeed struct {
	mu     sync.Mutex
	prices map[string][]float64
	err    error
}

func newStubFeed() *stubFeed {
	return &stubFeed{prices: make(map[string][]float64)}
}

func (f *stubFeed) set(symbol string, prices ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = prices
}

func (f *stubFeed) Quote(_ context.Context, symbol string) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	prices, ok := f.prices[symbol]
	if !ok || len(prices) == 0 {
		return domain.Quote{}, errors.New("unknown symbol")
	}
	price := prices[0]
	if len(prices) > 1 {
		f.prices[symbol] = prices[1:]
	}
	return domain.Quote{Symbol: symbol, Price: price, At: time.Now()}, nil
}
