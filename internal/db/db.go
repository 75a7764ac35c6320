// Package db opens the MySQL store holding the submission log and the
// used-email ledger.
package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
	"aura-protocol-go/internal/model"
)

// Models lists every table the agent owns, in migration order.
var Models = []any{&model.SubmissionLog{}, &model.VerifiedEmail{}}

// Init connects, sizes the pool from cfg and migrates Models.
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: newLogger(cfg.SlowQuery, logrus.GetLevel()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s@%s:%d: %w", cfg.DBName, cfg.Host, cfg.Port, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	p := poolSettings(cfg)
	sqlDB.SetMaxIdleConns(p.maxIdle)
	sqlDB.SetMaxOpenConns(p.maxOpen)
	sqlDB.SetConnMaxLifetime(p.lifetime)

	if err := migrate(conn); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"database":  cfg.DBName,
		"max_open":  p.maxOpen,
		"max_idle":  p.maxIdle,
		"lifetime":  p.lifetime.String(),
		"component": "db",
	}).Info("Database ready")
	return conn, nil
}

// Close releases the pool behind conn.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate submission tables: %w", err)
	}
	return nil
}

type pool struct {
	maxIdle  int
	maxOpen  int
	lifetime time.Duration
}

// poolSettings fills unset values; idle connections never exceed open ones.
func poolSettings(cfg config.DatabaseConfig) pool {
	p := pool{maxIdle: cfg.MaxIdleConns, maxOpen: cfg.MaxOpenConns, lifetime: cfg.ConnMaxLifetime}
	if p.maxOpen <= 0 {
		p.maxOpen = 10
	}
	if p.maxIdle <= 0 {
		p.maxIdle = 2
	}
	if p.maxIdle > p.maxOpen {
		p.maxIdle = p.maxOpen
	}
	if p.lifetime <= 0 {
		p.lifetime = 30 * time.Minute
	}
	return p
}

// newLogger routes gorm output through logrus. Query tracing is only on at
// debug level.
func newLogger(slow time.Duration, level logrus.Level) logger.Interface {
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}
	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  gormLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func gormLevel(level logrus.Level) logger.LogLevel {
	switch {
	case level >= logrus.DebugLevel:
		return logger.Info
	case level >= logrus.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}
