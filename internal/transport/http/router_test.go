package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winloss_server/internal/domain"
	"winloss_server/internal/usecase"
	"winloss_server/internal/winloss"
)

type stubTrading struct {
	openReq  usecase.OpenTradeRequest
	openErr  error
	settle   map[string]error
	accounts map[string]decimal.Decimal
}

func (s *stubTrading) OpenTrade(_ context.Context, req usecase.OpenTradeRequest) (domain.Trade, error) {
	s.openReq = req
	if s.openErr != nil {
		return domain.Trade{}, s.openErr
	}
	return domain.Trade{
		ID:        "01HZX",
		UserID:    req.UserID,
		Symbol:    req.Symbol,
		Direction: req.Direction,
		Stake:     req.Stake,
		Status:    domain.TradeStatusOpen,
	}, nil
}

func (s *stubTrading) SettleTrade(_ context.Context, tradeID string) (domain.Trade, error) {
	if err, ok := s.settle[tradeID]; ok {
		return domain.Trade{}, err
	}
	return domain.Trade{
		ID:      tradeID,
		Status:  domain.TradeStatusSettled,
		Outcome: domain.OutcomeWin,
		Forced:  true,
		Payout:  decimal.NewFromInt(185),
	}, nil
}

func (s *stubTrading) ListTrades(_ context.Context, userID string, limit int) ([]domain.Trade, error) {
	out := make([]domain.Trade, 0, limit)
	for i := 0; i < limit && i < 3; i++ {
		out = append(out, domain.Trade{ID: fmt.Sprintf("t%d", i), UserID: userID})
	}
	return out, nil
}

func (s *stubTrading) GetAccount(_ context.Context, userID string) (domain.Account, error) {
	return domain.NewAccount(userID, s.accounts[userID]), nil
}

func (s *stubTrading) ResetAccount(_ context.Context, userID string) (domain.Account, error) {
	return domain.NewAccount(userID, decimal.NewFromInt(10000)), nil
}

type stubAdmin struct {
	state    domain.WinLossState
	switched domain.Variant
	updated  domain.WinLossConfig
}

func (s *stubAdmin) GetState(_ context.Context, userID string) (domain.WinLossState, error) {
	st := s.state
	st.UserID = userID
	return st, nil
}

func (s *stubAdmin) SwitchVariant(_ context.Context, userID string, variant domain.Variant) (domain.WinLossState, error) {
	s.switched = variant
	return domain.WinLossState{UserID: userID, Config: winloss.SwitchVariant(s.state.Config, variant)}, nil
}

func (s *stubAdmin) UpdateConfig(_ context.Context, userID string, cfg domain.WinLossConfig) (domain.WinLossState, error) {
	if err := winloss.ValidateVariantConfig(cfg); err != nil {
		return domain.WinLossState{}, fmt.Errorf("%w: %w", usecase.ErrInvalidConfig, err)
	}
	s.updated = cfg
	return domain.WinLossState{UserID: userID, Config: cfg}, nil
}

func (s *stubAdmin) ResetStats(_ context.Context, userID string) (domain.WinLossState, error) {
	return domain.WinLossState{UserID: userID, Config: s.state.Config, Stats: winloss.NewStats()}, nil
}

func newTestRouter() (*Router, *stubTrading, *stubAdmin) {
	trading := &stubTrading{
		settle: map[string]error{
			"missing": domain.ErrNotFound,
			"done":    domain.ErrTradeSettled,
		},
		accounts: map[string]decimal.Decimal{"u1": decimal.RequireFromString("9900.5")},
	}
	admin := &stubAdmin{state: domain.WinLossState{Config: winloss.DefaultConfig(), Stats: winloss.NewStats()}}
	r := New(trading, admin, Options{Logger: zerolog.Nop(), Gatherer: prometheus.NewRegistry()})
	return r, trading, admin
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealthAndRequestID(t *testing.T) {
	r, _, _ := newTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := r.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func TestOpenTrade(t *testing.T) {
	r, trading, _ := newTestRouter()

	status, body := do(t, r.App(), "POST", "/api/v1/users/u1/trades",
		`{"symbol":"EURUSD","direction":"up","stake":"100.5","durationSeconds":60}`)
	require.Equal(t, 201, status, string(body))

	assert.Equal(t, "u1", trading.openReq.UserID)
	assert.Equal(t, domain.DirectionUp, trading.openReq.Direction)
	assert.Equal(t, time.Minute, trading.openReq.Duration)
	assert.True(t, trading.openReq.Stake.Equal(decimal.RequireFromString("100.5")))

	var resp TradeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "01HZX", resp.ID)
	assert.Equal(t, "100.5", resp.Stake)
	assert.Equal(t, "open", resp.Status)

	// Numeric stakes are accepted too.
	status, _ = do(t, r.App(), "POST", "/api/v1/users/u1/trades",
		`{"symbol":"EURUSD","direction":"up","stake":25,"durationSeconds":60}`)
	assert.Equal(t, 201, status)
	assert.True(t, trading.openReq.Stake.Equal(decimal.NewFromInt(25)))
}

func TestOpenTrade_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", fmt.Errorf("%w: stake must be positive", usecase.ErrInvalidTrade), 400},
		{"funds", domain.ErrInsufficientFunds, 409},
		{"other", fmt.Errorf("database down"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, trading, _ := newTestRouter()
			trading.openErr = tt.err
			status, body := do(t, r.App(), "POST", "/api/v1/users/u1/trades",
				`{"symbol":"EURUSD","direction":"up","stake":1,"durationSeconds":60}`)
			assert.Equal(t, tt.want, status)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}

	r, _, _ := newTestRouter()
	status, _ := do(t, r.App(), "POST", "/api/v1/users/u1/trades", `{"stake":`)
	assert.Equal(t, 400, status)
}

func TestSettleTrade(t *testing.T) {
	r, _, _ := newTestRouter()

	status, body := do(t, r.App(), "POST", "/api/v1/trades/t1/settle", "")
	require.Equal(t, 200, status)
	var resp TradeResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "win", resp.Outcome)
	assert.True(t, resp.Forced)
	assert.Equal(t, "185", resp.Payout)

	status, _ = do(t, r.App(), "POST", "/api/v1/trades/missing/settle", "")
	assert.Equal(t, 404, status)

	status, _ = do(t, r.App(), "POST", "/api/v1/trades/done/settle", "")
	assert.Equal(t, 409, status)
}

func TestListTradesAndAccount(t *testing.T) {
	r, _, _ := newTestRouter()

	status, body := do(t, r.App(), "GET", "/api/v1/users/u1/trades?limit=2", "")
	require.Equal(t, 200, status)
	var trades []TradeResponse
	require.NoError(t, json.Unmarshal(body, &trades))
	assert.Len(t, trades, 2)

	status, body = do(t, r.App(), "GET", "/api/v1/users/u1/account", "")
	require.Equal(t, 200, status)
	var account AccountResponse
	require.NoError(t, json.Unmarshal(body, &account))
	assert.Equal(t, "9900.5", account.DemoBalance)

	status, body = do(t, r.App(), "POST", "/api/v1/users/u1/account/reset", "")
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(body, &account))
	assert.Equal(t, "10000", account.DemoBalance)
}

func TestGetWinLoss(t *testing.T) {
	r, _, _ := newTestRouter()

	status, body := do(t, r.App(), "GET", "/api/v1/admin/users/u1/winloss", "")
	require.Equal(t, 200, status)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	cfg := raw["config"].(map[string]any)
	assert.Nil(t, cfg["activeVariant"])
	assert.Equal(t, float64(5), raw["requiredWins"])
	assert.Equal(t, "u1", raw["userId"])
}

func TestSwitchVariant(t *testing.T) {
	r, _, admin := newTestRouter()

	status, body := do(t, r.App(), "POST", "/api/v1/admin/users/u1/winloss/variant", `{"variant":2}`)
	require.Equal(t, 200, status, string(body))
	assert.Equal(t, domain.Variant2, admin.switched)

	var resp WinLossStateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, domain.Variant2, resp.Config.ActiveVariant)
	assert.True(t, resp.Config.Variant2.Enabled)

	status, _ = do(t, r.App(), "POST", "/api/v1/admin/users/u1/winloss/variant", `{"variant":null}`)
	require.Equal(t, 200, status)
	assert.Equal(t, domain.VariantNone, admin.switched)

	status, _ = do(t, r.App(), "POST", "/api/v1/admin/users/u1/winloss/variant", `{"variant":3}`)
	assert.Equal(t, 400, status)

	status, _ = do(t, r.App(), "POST", "/api/v1/admin/users/u1/winloss/variant", `{}`)
	assert.Equal(t, 400, status)
}

func TestUpdateWinLoss(t *testing.T) {
	r, _, admin := newTestRouter()

	status, body := do(t, r.App(), "PUT", "/api/v1/admin/users/u1/winloss",
		`{"enabled":true,"activeVariant":1,"variant1":{"enabled":true,"winratePercent":60,"windowSize":5},"variant2":{"startPercent":50,"minPercent":10,"stepPercent":10}}`)
	require.Equal(t, 200, status, string(body))
	assert.Equal(t, 60.0, admin.updated.Variant1.WinratePercent)
	assert.Equal(t, domain.Variant1, admin.updated.ActiveVariant)

	status, body = do(t, r.App(), "PUT", "/api/v1/admin/users/u1/winloss",
		`{"enabled":true,"activeVariant":1,"variant1":{"enabled":true,"winratePercent":60,"windowSize":0}}`)
	assert.Equal(t, 400, status)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Contains(t, resp.Error, winloss.ErrWindowSizeTooSmall.Error())
}

func TestResetWinLossAndMetrics(t *testing.T) {
	r, _, _ := newTestRouter()

	status, _ := do(t, r.App(), "POST", "/api/v1/admin/users/u1/winloss/reset", "")
	assert.Equal(t, 200, status)

	status, _ = do(t, r.App(), "GET", "/metrics", "")
	assert.Equal(t, 200, status)
}
