package http

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"winloss_server/internal/domain"
	"winloss_server/internal/usecase"
)

type TradingService interface {
	OpenTrade(ctx context.Context, req usecase.OpenTradeRequest) (domain.Trade, error)
	SettleTrade(ctx context.Context, tradeID string) (domain.Trade, error)
	ListTrades(ctx context.Context, userID string, limit int) ([]domain.Trade, error)
	GetAccount(ctx context.Context, userID string) (domain.Account, error)
	ResetAccount(ctx context.Context, userID string) (domain.Account, error)
}

type WinLossAdminService interface {
	GetState(ctx context.Context, userID string) (domain.WinLossState, error)
	SwitchVariant(ctx context.Context, userID string, variant domain.Variant) (domain.WinLossState, error)
	UpdateConfig(ctx context.Context, userID string, cfg domain.WinLossConfig) (domain.WinLossState, error)
	ResetStats(ctx context.Context, userID string) (domain.WinLossState, error)
}

type Options struct {
	Logger   zerolog.Logger
	Gatherer prometheus.Gatherer
}

type Router struct {
	app            *fiber.App
	tradingService TradingService
	adminService   WinLossAdminService
	logger         zerolog.Logger
}

func New(trading TradingService, admin WinLossAdminService, opts Options) *Router {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	r := &Router{
		app:            app,
		tradingService: trading,
		adminService:   admin,
		logger:         opts.Logger,
	}

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(r.accessLog)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Post("/users/:user_id/trades", r.openTrade)
	v1.Get("/users/:user_id/trades", r.listTrades)
	v1.Post("/trades/:trade_id/settle", r.settleTrade)
	v1.Get("/users/:user_id/account", r.getAccount)
	v1.Post("/users/:user_id/account/reset", r.resetAccount)

	v1.Get("/admin/users/:user_id/winloss", r.getWinLoss)
	v1.Put("/admin/users/:user_id/winloss", r.updateWinLoss)
	v1.Post("/admin/users/:user_id/winloss/variant", r.switchVariant)
	v1.Post("/admin/users/:user_id/winloss/reset", r.resetWinLoss)

	app.Get("/swagger/*", swagger.HandlerDefault)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return r
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}

	event := r.logger.Info()
	if status >= fiber.StatusInternalServerError {
		event = r.logger.Error().Err(err)
	}
	event.
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("http request")

	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}

// statusError maps service errors onto HTTP status codes.
func statusError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidTrade), errors.Is(err, usecase.ErrInvalidConfig):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrTradeSettled):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}

// openTrade godoc
// @Summary Open a demo binary-option trade
// @Tags trading
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body OpenTradeRequest true "Trade request"
// @Success 201 {object} TradeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{user_id}/trades [post]
func (r *Router) openTrade(c *fiber.Ctx) error {
	if r.tradingService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading service unavailable")
	}

	userID := c.Params("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id required")
	}

	var req OpenTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 10*time.Second)
	defer cancel()

	trade, err := r.tradingService.OpenTrade(ctx, usecase.OpenTradeRequest{
		UserID:    userID,
		Symbol:    req.Symbol,
		Direction: domain.TradeDirection(req.Direction),
		Stake:     req.Stake,
		Duration:  time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		return statusError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTradeResponse(trade))
}

// listTrades godoc
// @Summary List a user's trades, newest first
// @Tags trading
// @Produce json
// @Param user_id path string true "User ID"
// @Param limit query int false "Maximum number of trades"
// @Success 200 {array} TradeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{user_id}/trades [get]
func (r *Router) listTrades(c *fiber.Ctx) error {
	if r.tradingService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading service unavailable")
	}

	userID := c.Params("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id required")
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	trades, err := r.tradingService.ListTrades(ctx, userID, limit)
	if err != nil {
		return statusError(err)
	}

	resp := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		resp = append(resp, toTradeResponse(t))
	}
	return c.JSON(resp)
}

// settleTrade godoc
// @Summary Settle an open trade now
// @Description Applies the user's outcome control when it is active.
// @Tags trading
// @Produce json
// @Param trade_id path string true "Trade ID"
// @Success 200 {object} TradeResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /trades/{trade_id}/settle [post]
func (r *Router) settleTrade(c *fiber.Ctx) error {
	if r.tradingService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading service unavailable")
	}

	tradeID := c.Params("trade_id")
	if tradeID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "trade_id required")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 10*time.Second)
	defer cancel()

	trade, err := r.tradingService.SettleTrade(ctx, tradeID)
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toTradeResponse(trade))
}

// getAccount godoc
// @Summary Get the demo account, opening it on first access
// @Tags account
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} AccountResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{user_id}/account [get]
func (r *Router) getAccount(c *fiber.Ctx) error {
	if r.tradingService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading service unavailable")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	account, err := r.tradingService.GetAccount(ctx, c.Params("user_id"))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toAccountResponse(account))
}

// resetAccount godoc
// @Summary Reset the demo balance to its starting amount
// @Tags account
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} AccountResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{user_id}/account/reset [post]
func (r *Router) resetAccount(c *fiber.Ctx) error {
	if r.tradingService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "trading service unavailable")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	account, err := r.tradingService.ResetAccount(ctx, c.Params("user_id"))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toAccountResponse(account))
}

// getWinLoss godoc
// @Summary Get a user's outcome-control configuration and statistics
// @Tags winloss
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} WinLossStateResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/users/{user_id}/winloss [get]
func (r *Router) getWinLoss(c *fiber.Ctx) error {
	if r.adminService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "winloss admin unavailable")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	state, err := r.adminService.GetState(ctx, c.Params("user_id"))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toWinLossStateResponse(state))
}

// updateWinLoss godoc
// @Summary Replace a user's outcome-control configuration
// @Description variant2.currentPercent is managed by settlements and ignored on input.
// @Tags winloss
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body domain.WinLossConfig true "Configuration"
// @Success 200 {object} WinLossStateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/users/{user_id}/winloss [put]
func (r *Router) updateWinLoss(c *fiber.Ctx) error {
	if r.adminService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "winloss admin unavailable")
	}

	var cfg domain.WinLossConfig
	if err := c.BodyParser(&cfg); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload: "+err.Error())
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	state, err := r.adminService.UpdateConfig(ctx, c.Params("user_id"), cfg)
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toWinLossStateResponse(state))
}

// switchVariant godoc
// @Summary Switch the active outcome-control variant
// @Description Send {"variant": 1}, {"variant": 2} or {"variant": null} to turn control off.
// @Tags winloss
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param request body SwitchVariantRequest true "Target variant"
// @Success 200 {object} WinLossStateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/users/{user_id}/winloss/variant [post]
func (r *Router) switchVariant(c *fiber.Ctx) error {
	if r.adminService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "winloss admin unavailable")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	raw, ok := body["variant"]
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "variant required")
	}
	var variant domain.Variant
	if err := json.Unmarshal(raw, &variant); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	state, err := r.adminService.SwitchVariant(ctx, c.Params("user_id"), variant)
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toWinLossStateResponse(state))
}

// resetWinLoss godoc
// @Summary Clear a user's outcome-control statistics
// @Tags winloss
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} WinLossStateResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/users/{user_id}/winloss/reset [post]
func (r *Router) resetWinLoss(c *fiber.Ctx) error {
	if r.adminService == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "winloss admin unavailable")
	}

	ctx, cancel := context.WithTimeout(userContext(c), 5*time.Second)
	defer cancel()

	state, err := r.adminService.ResetStats(ctx, c.Params("user_id"))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(toWinLossStateResponse(state))
}
