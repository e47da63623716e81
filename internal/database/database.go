package database

import (
	"fmt"
	"os"
	"time"

	"github.com/draftsign/draftsign-api/internal/models"
	pkgLogger "github.com/draftsign/draftsign-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		// Duplicate-key violations surface as gorm.ErrDuplicatedKey so the
		// payment repository can detect webhook redeliveries.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies the schema for all persisted models. Events are append-only:
// the application never updates or deletes rows in that table, and the
// production role should not be granted UPDATE/DELETE on it.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tenant{},
		&models.Client{},
		&models.Template{},
		&models.Section{},
		&models.Document{},
		&models.LineItem{},
		&models.Event{},
		&models.Payment{},
	)
}
