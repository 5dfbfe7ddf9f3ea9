package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stitts-dev/richard-sim/internal/models"
)

type DB struct {
	*gorm.DB
}

// NewConnection opens postgres for postgres:// URLs and a sqlite file for anything
// else (sqlite://path, a bare path, or ":memory:")
func NewConnection(databaseURL string, isDevelopment bool) (*DB, error) {
	logLevel := logger.Error
	if isDevelopment {
		logLevel = logger.Warn
	}

	dialector, isSQLite := openDialector(databaseURL)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if isSQLite {
		// sqlite serializes writers; one connection also keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Debug("Database connection established successfully")

	return &DB{db}, nil
}

func openDialector(databaseURL string) (gorm.Dialector, bool) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), false
	default:
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), true
	}
}

// Migrate creates or updates every table the application uses
func (db *DB) Migrate() error {
	if err := db.AutoMigrate(
		&models.CachedResponse{},
		&models.SimulationRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}

// DropAll removes every application table
func (db *DB) DropAll() error {
	if err := db.Migrator().DropTable(&models.SimulationRun{}, &models.CachedResponse{}); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
