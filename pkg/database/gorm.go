package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormDB opens a gorm handle on top of the pooled sql.DB from central config.
func NewGormDB(cfg Config) (*gorm.DB, error) {
	sqlDB, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Discard
	if cfg.EnableLogging {
		threshold := time.Duration(cfg.SlowQueryThresholdMs) * time.Millisecond
		if threshold <= 0 {
			threshold = 200 * time.Millisecond
		}
		gormLogger = logger.New(
			slogWriter{},
			logger.Config{
				SlowThreshold:             threshold,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// slogWriter adapts gorm's logger interface to the process slog default.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...))
}
