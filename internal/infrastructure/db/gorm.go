package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"bnpl-ledger/internal/domain/blacklist"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/domain/merchant"
	"bnpl-ledger/internal/domain/pool"
	"bnpl-ledger/internal/domain/protocol"
	"bnpl-ledger/internal/domain/score"
	"bnpl-ledger/internal/domain/token"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for DB_DRIVER.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func OpenGorm(driver, dsn, logLevel string) (*gorm.DB, error) {
	dial, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	return open(dial, ParseLogLevel(logLevel))
}

func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	return open(dial, logger.Warn)
}

func open(dial gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dial.Name() == "sqlite" {
		// one writer; also keeps in-memory databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(30)
		sqlDB.SetMaxIdleConns(10)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Printf("gorm: connected (%s)", dial.Name())
	return db, nil
}

func ParseLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate creates or updates every ledger table and seeds the singleton
// pool and protocol rows.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&loan.Loan{},
		&merchant.Merchant{},
		&pool.Pool{},
		&protocol.State{},
		&score.Score{},
		&blacklist.Entry{},
		&event.Event{},
		&token.Account{},
	); err != nil {
		return err
	}
	if err := db.FirstOrCreate(&pool.Pool{}, pool.Pool{ID: pool.SingletonID}).Error; err != nil {
		return err
	}
	return db.FirstOrCreate(&protocol.State{}, protocol.State{ID: protocol.SingletonID}).Error
}
