package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	LogLevel  string
	Database  DatabaseConfig
	Redis     RedisConfig
	Stock     StockConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // postgres | sqlite
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Path     string // sqlite file path
	Silent   bool
}

// RedisConfig holds the optional Redis connection used for allocation locks
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// StockConfig holds tunables of the put-away / allocation engine
type StockConfig struct {
	LPNPrefix       string
	LockTTL         time.Duration
	CandidatePage   int
	LabelsPerRow    int
	LabelsPerColumn int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3210"),
		JWTSecret: jwtSecret,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "contania"),
			Path:     getEnv("SQLITE_PATH", "./contania.db"),
			Silent:   getEnv("DB_SILENT", "false") == "true",
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Stock: StockConfig{
			LPNPrefix:       getEnv("LPN_PREFIX", "LPN"),
			LockTTL:         time.Duration(getEnvInt("ALLOCATION_LOCK_TTL_SECONDS", 30)) * time.Second,
			CandidatePage:   getEnvInt("ALLOCATION_PAGE_SIZE", 100),
			LabelsPerRow:    getEnvInt("LABEL_COLS", 3),
			LabelsPerColumn: getEnvInt("LABEL_ROWS", 7),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
