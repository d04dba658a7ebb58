package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"quartermaster/internal/models"
)

// InitDB opens the database connection and migrates the schema. Supported
// drivers are "sqlite3" and "postgres", matching the config file.
func InitDB(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(
		&models.Item{},
		&models.Loan{},
		&models.LoanGroup{},
		&models.LifecycleEvent{},
		&models.ActivityEntry{},
	).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return db, nil
}
