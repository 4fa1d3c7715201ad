package Models

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	puresqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// DatabaseConfig selects the driver and DSN used by Open.
type DatabaseConfig struct {
	Driver string // sqlite, sqlite-pure, mysql, postgres
	DSN    string
	Debug  bool
}

// Open connects to the configured database without migrating it.
func Open(cfg DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func dialectorFor(cfg DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "sqlite-pure":
		return puresqlite.Open(cfg.DSN), nil
	case "mysql":
		dsnConfig, err := mysqldriver.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		// Timestamps are stored and compared in UTC.
		dsnConfig.ParseTime = true
		dsnConfig.Loc = time.UTC
		return mysql.Open(dsnConfig.FormatDSN()), nil
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect opens the database, migrates it and stores the handle in DB.
func Connect(cfg DatabaseConfig) (*gorm.DB, error) {
	connection, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(connection); err != nil {
		return nil, err
	}
	DB = connection
	log.Printf("Database connected (%s)", cfg.Driver)
	return connection, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	// Base records first, then join tables and work records that reference them.
	if err := db.AutoMigrate(
		&Employee{},
		&Project{},
	); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}

	if err := db.AutoMigrate(
		&Task{},
		&EmployeeProject{},
		&EmployeeTask{},
	); err != nil {
		return fmt.Errorf("failed to migrate assignment tables: %w", err)
	}

	if err := db.AutoMigrate(
		&TimeLog{},
		&Screenshot{},
	); err != nil {
		return fmt.Errorf("failed to migrate time tracking tables: %w", err)
	}
	return nil
}

// OpenInMemory returns a migrated SQLite database that lives as long as its
// single pooled connection.
func OpenInMemory() (*gorm.DB, error) {
	db, err := Open(DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

// IsNotFound reports whether err is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
