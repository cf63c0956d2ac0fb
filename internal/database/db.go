package database

import (
	"log"
	"os"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func newLogger(mode string) logger.Interface {
	level := logger.Warn
	switch mode {
	case "off":
		level = logger.Silent
	case "info":
		level = logger.Info
	case "error":
		level = logger.Error
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}

// Open connects to Postgres without migrating.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         newLogger(cfg.GormLog),
		TranslateError: true,
	})
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.Shipment{},
		&models.ShipmentItem{},
		&models.CustomField{},
		&models.AuditLog{},
		&models.LedgerDrift{},
	)
}

func Init(cfg *config.Config) *gorm.DB {
	var err error

	DB, err = Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("Database connected. Migration complete.")
	return DB
}
