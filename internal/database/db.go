package database

import (
	"fmt"
	"log"
	"time"

	"kafe-backend/internal/config"
	"kafe-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open verilen sürücüyle bağlanır. GORM'un doldurduğu zamanlar UTC.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("desteklenmeyen veritabanı sürücüsü: %s", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
		&models.Category{},
		&models.MenuItem{},
		&models.Setting{},
		&models.NotificationBaseline{},
		&models.AuditLog{},
	)
}

// Connect ayarlı veritabanını açar ve migrate eder.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// sqlite tek yazıcı
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return db, nil
}

// Init sunucu için Connect, hata fatal.
func Init(cfg *config.Config) *gorm.DB {
	db, err := Connect(cfg)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
	return db
}
