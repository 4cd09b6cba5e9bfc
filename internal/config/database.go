package config

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fitforge/internal/models"
)

// OpenDB connects to postgres through lib/pq, retrying while the database comes
// up, and migrates the schema. The caller owns the handle and closes it.
func OpenDB(ctx context.Context, cfg Database, log gormlogger.Interface) (*gorm.DB, error) {
	var db *gorm.DB

	err := retry.Do(
		func() error {
			conn, err := gorm.Open(postgres.New(postgres.Config{
				DriverName: "postgres",
				DSN:        cfg.DSN(),
			}), &gorm.Config{Logger: log})
			if err != nil {
				return err
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				_ = sqlDB.Close()
				return err
			}
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
			db = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logrus.WithError(err).Warnf("database not reachable, retry %d/%d", n+1, cfg.ConnectAttempts)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// CloseDB releases the pool behind db.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
