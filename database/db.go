// Package database owns the gorm connection: opening sqlite or postgres,
// migrating the schema and exposing the Store used by the auth services.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/agriintel/agri-intel/config"
	"github.com/agriintel/agri-intel/database/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func models() []any {
	return []any{
		&model.User{},
		&model.Region{},
		&model.Crop{},
		&model.Market{},
		&model.Farmer{},
		&model.Price{},
		&model.SupplyRecord{},
	}
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	for _, m := range models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrate %T: %w", m, err)
		}
	}
	return nil
}

// Open connects to the configured database without touching the package
// level connection.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	if cfg.IsPostgreSQL() {
		dialector = postgres.Open(cfg.GetDSN())
	} else {
		dialector = sqlite.Open(cfg.GetDSN())
	}

	conn, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, closeOnError(conn, err)
		}
		// sqlite allows a single writer; keep one connection so the
		// pragmas below hold for every statement.
		sqlDB.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return nil, closeOnError(conn, fmt.Errorf("%s %w", pragma, err))
			}
		}
	}
	return conn, nil
}

// InitDB opens the database, migrates it and installs it as the package
// level connection returned by GetDB.
func InitDB(cfg *config.DatabaseConfig) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	if err := Migrate(conn); err != nil {
		return closeOnError(conn, err)
	}
	db = conn
	return nil
}

// closeOnError releases the pool behind a connection that failed to set up
// and returns err.
func closeOnError(conn *gorm.DB, err error) error {
	sqlDB, dbErr := conn.DB()
	if dbErr != nil {
		return err
	}
	return errors.Join(err, sqlDB.Close())
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	if IsSQLite(db) {
		if err := Checkpoint(); err != nil {
			return err
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsSQLite reports whether conn talks to sqlite.
func IsSQLite(conn *gorm.DB) bool {
	return conn.Dialector.Name() == "sqlite"
}

// Checkpoint folds the sqlite WAL back into the main database file.
func Checkpoint() error {
	if db == nil || !IsSQLite(db) {
		return nil
	}
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
