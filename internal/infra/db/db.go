package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applogger "winloss_server/internal/infra/logger"
)

// zerologWriter adapts zerolog.Logger to gorm logger.Writer interface
type zerologWriter struct {
	logger zerolog.Logger
}

func (w *zerologWriter) Printf(format string, v ...interface{}) {
	w.logger.Warn().Msg(fmt.Sprintf(format, v...))
}

type poolSettings struct {
	maxIdle      int
	maxOpen      int
	maxIdleTime  time.Duration
	maxLifetime  time.Duration
	pingTimeout  time.Duration
	pingAttempts int
}

var pools = map[string]poolSettings{
	"postgres": {
		maxIdle:      10,
		maxOpen:      25,
		maxIdleTime:  5 * time.Minute,
		maxLifetime:  time.Hour,
		pingTimeout:  10 * time.Second,
		pingAttempts: 3,
	},
	// A single connection keeps in-memory databases alive and avoids SQLITE_BUSY.
	"sqlite": {
		maxIdle:      1,
		maxOpen:      1,
		maxIdleTime:  5 * time.Minute,
		pingTimeout:  5 * time.Second,
		pingAttempts: 1,
	},
}

// Connect opens the database for the given driver ("postgres" or "sqlite").
func Connect(ctx context.Context, driver, dsn string) (*gorm.DB, error) {
	pool, ok := pools[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn required", driver)
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if err := ensureDirectory(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	}

	gormDB, err := gorm.Open(dialector, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying db: %w", err)
	}

	// Pool limits must be in place before the first ping opens a connection.
	pool.apply(sqlDB)

	if err := pool.ping(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gormDB, nil
}

func (p poolSettings) apply(db *sql.DB) {
	db.SetMaxIdleConns(p.maxIdle)
	db.SetMaxOpenConns(p.maxOpen)
	db.SetConnMaxIdleTime(p.maxIdleTime)
	db.SetConnMaxLifetime(p.maxLifetime)
}

func (p poolSettings) ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, p.pingTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= p.pingAttempts; attempt++ {
		if err = db.PingContext(pingCtx); err == nil {
			return nil
		}
		if attempt < p.pingAttempts {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return fmt.Errorf("ping database after %d attempts: %w", p.pingAttempts, err)
}

func gormConfig() *gorm.Config {
	writer := &zerologWriter{logger: applogger.Component("gorm")}

	return &gorm.Config{
		Logger: logger.New(
			writer,
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func ensureDirectory(dsn string) error {
	dir := filepath.Dir(sqliteFilePath(dsn))
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite directory: %w", err)
	}
	return nil
}

// sqliteFilePath returns the file a sqlite DSN points at, or "" for in-memory databases.
func sqliteFilePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	path = strings.TrimPrefix(path, "//")
	if path == ":memory:" {
		return ""
	}
	return path
}
