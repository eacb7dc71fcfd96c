package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vendora-system/internal/database/models"
)

// NewConnection opens the shared store. The embedded sqlite driver is the
// default; postgres is selected by DB_DRIVER for deployments that outgrow it.
func NewConnection(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.ActivityLog{},
		&models.Client{},
		&models.Category{},
		&models.Product{},
		&models.Supplier{},
		&models.Sale{},
		&models.PaymentMethod{},
		&models.ServiceOrder{},
		&models.LoyaltyConfig{},
		&models.LoyaltyAccount{},
		&models.LoyaltyHistory{},
		&models.Reward{},
		&models.Payable{},
		&models.Payment{},
		&models.StoreSettings{},
	)
}
