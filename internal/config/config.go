package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment   string `validate:"required,oneof=development production test"`
	LogLevel      string `validate:"omitempty,oneof=debug info warn error"`
	TelegramToken string
	StorageDriver string `validate:"required,oneof=postgres memory"`
	DBDSN         string `validate:"required_if=StorageDriver postgres"`
	MigrationsDir string

	LockTimeout   time.Duration `validate:"gt=0"`
	MatchHorizon  time.Duration `validate:"gt=0"`
	MatchTimezone string        `validate:"required"`

	HTTPAddr           string `validate:"omitempty,hostname_port"`
	RateLimitPerMinute int    `validate:"gte=0"`
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv собирает конфиг из переменных окружения и проверяет его
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("ENV", "development"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		StorageDriver: getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		DBDSN:         os.Getenv("DB_DSN"),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),
		MatchTimezone: getEnv("MATCH_TIMEZONE", "UTC"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.LockTimeout, err = getDuration("LOCK_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.MatchHorizon, err = getDuration("MATCH_HORIZON", 365*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location зона, в которой заданы окна доступности
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.MatchTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_TIMEZONE %q: %w", c.MatchTimezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
