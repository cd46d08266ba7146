// Package store persists the trip tree in a relational database through
// gorm. SQLite (pure Go, via glebarez/sqlite) serves local runs and tests;
// PostgreSQL serves deployed environments.
//
// Each table maps to one trip entity. Foreign keys are plain indexed
// columns: cascades are performed by the trip service inside a
// transaction, so every backend behaves the same.
package store

import (
	"fmt"
	"strings"

	"github.com/fpang/trip-journal/internal/trip"
	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database and migrates the trip schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var dialector gorm.Dialector
	switch driver {
	case "", DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver != DriverPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; serialize through a single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("driver", dialector.Name()).Msg("Database initialized")
	return db, nil
}

// Migrate creates or updates the trip tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&trip.Trip{}, &trip.TripRecord{}, &trip.TripPhoto{}, &trip.TripTag{}); err != nil {
		return fmt.Errorf("migrate trip schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get database handle")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
