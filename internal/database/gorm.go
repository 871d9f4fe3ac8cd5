package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

// Options configures the Postgres connection pool.
type Options struct {
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	ConnLifetime  time.Duration
	SlowThreshold time.Duration
	Debug         bool // log every statement, not only slow ones and errors
}

// gormWriter routes gorm's printf-style output into our logger.
type gormWriter struct {
	log logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

func newGormLogger(log logger.Logger, opts Options) gormlogger.Interface {
	level := gormlogger.Warn
	if opts.Debug {
		level = gormlogger.Info
	}
	return gormlogger.New(gormWriter{log: log}, gormlogger.Config{
		SlowThreshold:             opts.SlowThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}

// Open connects to Postgres and configures the pool.
func Open(ctx context.Context, opts Options, log logger.Logger) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		Logger:  newGormLogger(log, opts),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("connected to postgres",
		logger.Int("max_open_conns", opts.MaxOpenConns),
		logger.Int("max_idle_conns", opts.MaxIdleConns))
	return db, nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
