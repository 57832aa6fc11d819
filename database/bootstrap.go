// database/bootstrap.go
package database

import (
	"fmt"

	"github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"cropyield/config"
	"cropyield/entities"
)

const legacyTrainedColumn = "isTrained"

// Open connects with the configured driver and migrates the schema.
func Open(cfg config.AppConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate folds the legacy flag column first so AutoMigrate doesn't leave two
// trained flags side by side.
func Migrate(db *gorm.DB) error {
	if err := migrateLegacyTrainedFlag(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := db.AutoMigrate(
		&entities.Record{},
		&entities.TrainingRun{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// migrateLegacyTrainedFlag moves rows written with an `isTrained` column onto
// `is_trained`. A row counts as trained if either column says so.
func migrateLegacyTrainedFlag(db *gorm.DB) error {
	m := db.Migrator()
	if !m.HasTable(&entities.Record{}) || !m.HasColumn(&entities.Record{}, legacyTrainedColumn) {
		return nil
	}
	if !m.HasColumn(&entities.Record{}, "is_trained") {
		return m.RenameColumn(&entities.Record{}, legacyTrainedColumn, "is_trained")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Record{}).
			Where(clause.Eq{Column: clause.Column{Name: legacyTrainedColumn}, Value: true}).
			UpdateColumn("is_trained", true).Error; err != nil {
			return fmt.Errorf("copy %s: %w", legacyTrainedColumn, err)
		}
		return tx.Migrator().DropColumn(&entities.Record{}, legacyTrainedColumn)
	})
}
