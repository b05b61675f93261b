package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type FeedConfig struct {
	URL      string
	CacheTTL time.Duration
}

type SchedulerConfig struct {
	Interval time.Duration
}

type LoggingConfig struct {
	Level string
}

type LockConfig struct {
	RedisURL string
	TTL      time.Duration
}

type TradingConfig struct {
	InitialBalance decimal.Decimal
	PayoutPercent  decimal.Decimal
}

type WinLossConfig struct {
	// RandomSeed of zero draws from the unseeded process-wide generator.
	RandomSeed uint64
}

type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Feed      FeedConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Lock      LockConfig
	Trading   TradingConfig
	WinLoss   WinLossConfig
}

func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "data/winloss.db")
	viper.SetDefault("PRICE_FEED_URL", "http://localhost:8081/quote")
	viper.SetDefault("PRICE_CACHE_TTL", "1s")
	viper.SetDefault("SCHEDULER_INTERVAL", "5s")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("DEMO_INITIAL_BALANCE", "10000")
	viper.SetDefault("TRADE_PAYOUT_PERCENT", "85")
	viper.SetDefault("WINLOSS_RANDOM_SEED", 0)

	interval, err := time.ParseDuration(viper.GetString("SCHEDULER_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler interval: %w", err)
	}
	cacheTTL, err := time.ParseDuration(viper.GetString("PRICE_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid price cache ttl: %w", err)
	}
	lockTTL, err := time.ParseDuration(viper.GetString("LOCK_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid lock ttl: %w", err)
	}
	balance, err := decimal.NewFromString(viper.GetString("DEMO_INITIAL_BALANCE"))
	if err != nil {
		return nil, fmt.Errorf("invalid demo initial balance: %w", err)
	}
	payout, err := decimal.NewFromString(viper.GetString("TRADE_PAYOUT_PERCENT"))
	if err != nil {
		return nil, fmt.Errorf("invalid trade payout percent: %w", err)
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(viper.GetString("DATABASE_DRIVER"))),
			DSN:    viper.GetString("DATABASE_DSN"),
		},
		Feed: FeedConfig{
			URL:      viper.GetString("PRICE_FEED_URL"),
			CacheTTL: cacheTTL,
		},
		Scheduler: SchedulerConfig{
			Interval: interval,
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Lock: LockConfig{
			RedisURL: viper.GetString("REDIS_URL"),
			TTL:      lockTTL,
		},
		Trading: TradingConfig{
			InitialBalance: balance,
			PayoutPercent:  payout,
		},
		WinLoss: WinLossConfig{
			RandomSeed: viper.GetUint64("WINLOSS_RANDOM_SEED"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Trading.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("DEMO_INITIAL_BALANCE must not be negative")
	}
	if !cfg.Trading.PayoutPercent.IsPositive() {
		return nil, fmt.Errorf("TRADE_PAYOUT_PERCENT must be positive")
	}

	return cfg, nil
}
