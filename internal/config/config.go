package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chezgustave/ordering/internal/models"
)

type Config struct {
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string

	JWT_SECRET string

	OPERATOR_USER          string
	OPERATOR_PASSWORD_HASH string

	// TAX_RATE is the rate hidden inside displayed (tax-inclusive) prices,
	// e.g. "0.10" for 10%.
	TAX_RATE decimal.Decimal

	ORDER_NUMBER_PREFIX  string
	DEFAULT_DELIVERY_FEE decimal.Decimal

	// DELIVERY_ZONES is the service radius as comma-separated postal-code
	// prefixes; empty accepts every address.
	DELIVERY_ZONES []string

	LOG_LEVEL string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		JWT_SECRET: os.Getenv("JWT_SECRET"),

		OPERATOR_USER:          os.Getenv("OPERATOR_USER"),
		OPERATOR_PASSWORD_HASH: os.Getenv("OPERATOR_PASSWORD_HASH"),

		ORDER_NUMBER_PREFIX: envDefault("ORDER_NUMBER_PREFIX", "CG"),
		LOG_LEVEL:           os.Getenv("LOG_LEVEL"),
	}

	rate, err := parseDecimal("TAX_RATE", "0.10")
	if err != nil {
		return nil, err
	}
	config.TAX_RATE = rate

	fee, err := parseDecimal("DEFAULT_DELIVERY_FEE", "5.00")
	if err != nil {
		return nil, err
	}
	config.DEFAULT_DELIVERY_FEE = fee

	if zones := os.Getenv("DELIVERY_ZONES"); zones != "" {
		for _, z := range strings.Split(zones, ",") {
			if z = strings.TrimSpace(z); z != "" {
				config.DELIVERY_ZONES = append(config.DELIVERY_ZONES, z)
			}
		}
	}

	return config, nil
}

func envDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDecimal(name, def string) (decimal.Decimal, error) {
	raw := envDefault(name, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return d, nil
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func InitDB(ctx context.Context, configuration *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER, configuration.DB_PASSWORD,
		configuration.DB_HOST, configuration.DB_PORT, configuration.DB_NAME,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if err := db.AutoMigrate(
		&models.MenuItem{},
		&models.Coupon{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}
