package client

import (
	"log"
	"time"

	"github.com/programerkawsar/marketplace-api/internal/config"
	"github.com/programerkawsar/marketplace-api/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func InitDBClient(cfg *config.Database) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)

	// TranslateError lets repositories detect duplicate-key conflicts
	// uniformly across drivers.
	gormCfg := &gorm.Config{TranslateError: true}

	switch cfg.Driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.URL), gormCfg)
	default:
		db, err = gorm.Open(sqlite.Open(cfg.URL), gormCfg)
	}
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (important for webhooks)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	return db
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.LicenseFee{},
		&model.Order{},
		&model.OrderItem{},
		&model.PurchaseRecord{},
		&model.Notification{},
		&model.IdempotencyKey{},
		&model.WebhookEvent{},
		&model.ReconciliationRecord{},
		&model.Payout{},
	)
}
