package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quantlake/quantlake/pkg/ledger"
)

// Setup initializes the ledger database connection and runs migrations.
func Setup(logger *logrus.Logger) (*gorm.DB, error) {
	logger.Debug("Starting ledger database setup")

	dsn := resolveDSN()

	if dsn.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(dsn.Value), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	if err := RunMigrations(logger, dsn); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"driver": dsn.Driver,
	}).Debug("Establishing GORM database connection")

	var dialector gorm.Dialector
	switch dsn.Driver {
	case "postgres":
		dialector = postgres.Open(dsn.Value)
	default:
		// busy timeout keeps concurrent workers from tripping over
		// SQLITE_BUSY on ledger writes
		dialector = sqlite.Open(dsn.Value + "?_busy_timeout=5000&_journal_mode=WAL")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogrusLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger database: %w", err)
	}

	// Auto-migrate covers columns added after the last SQL migration
	if err := db.AutoMigrate(&ledger.Record{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate ledger schema: %w", err)
	}

	logger.Info("Ledger database setup completed successfully")
	return db, nil
}
