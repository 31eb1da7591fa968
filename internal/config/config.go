package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=kafe port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	LivePort    string // WebSocket canlı görünümler
	DBDriver    string // postgres | sqlite
	DatabaseDSN string
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigins string
	Timezone    string
	Location    *time.Location

	// Kat planı kabı, masa konumları bu sınırlara kırpılır
	LayoutWidth  int
	LayoutHeight int

	RabbitMQURL string // boşsa köprü kapalı
	LogLevel    string
}

// Load varsa .env'i ve ortam değişkenlerini okur. Geçersiz ayar fatal.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println(".env dosyası yüklendi")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

// LoadStore tek seferlik komutlar için (migrate, seed, create-admin):
// sadece veritabanı ayarları doğrulanır, hata döner.
func LoadStore() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER desteklenmiyor: %q", cfg.DBDriver)
	}
	return cfg, nil
}

// FromEnv doğrulama yapmadan ortamdan Config kurar.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LivePort:    getEnv("LIVE_PORT", "8081"),
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Timezone:    getEnv("CAFE_TIMEZONE", "Europe/Istanbul"),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		LogLevel:    strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL geçersiz: %w", err)
	}
	cfg.JWTTTL = ttl

	if cfg.LayoutWidth, err = getEnvInt("LAYOUT_WIDTH", 960); err != nil {
		return nil, err
	}
	if cfg.LayoutHeight, err = getEnvInt("LAYOUT_HEIGHT", 640); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("CAFE_TIMEZONE geçersiz: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment değişkeni tanımlanmamış"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET en az 32 karakter olmalıdır"))
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER desteklenmiyor: %q", c.DBDriver))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL pozitif olmalı"))
	}
	if c.LayoutWidth <= 0 || c.LayoutHeight <= 0 {
		errs = append(errs, errors.New("LAYOUT_WIDTH ve LAYOUT_HEIGHT pozitif olmalı"))
	}
	if c.HTTPPort == c.LivePort {
		errs = append(errs, errors.New("HTTP_PORT ve LIVE_PORT aynı olamaz"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s sayı olmalı: %w", key, err)
	}
	return n, nil
}
