// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backends accepted by CATALOG_STORE
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all runtime configuration values.
type Config struct {
	HTTPPort    string
	Store       string // one of the Store* constants
	CatalogFile string // used by the file store
	CatalogName string // key of the document in redis and postgres
	LoadOnStart bool

	Redis    RedisConfig
	Postgres PostgresConfig
}

// RedisConfig holds connection settings for the redis store.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// PostgresConfig holds connection settings for the postgres store.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Load reads configuration from the environment, falling back to defaults.
func Load() Config {
	return Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Store:       getEnv("CATALOG_STORE", StoreFile),
		CatalogFile: getEnv("CATALOG_FILE", "flights.json"),
		CatalogName: getEnv("CATALOG_NAME", "default"),
		LoadOnStart: getEnvBool("LOAD_ON_START", true),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "flights"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
	}
}

// LoadEnvFile copies variables from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Validate checks the values Load cannot default its way out of.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("invalid CATALOG_STORE %q", c.Store)
	}
	if c.Store == StoreFile && c.CatalogFile == "" {
		return fmt.Errorf("CATALOG_FILE is required for the file store")
	}
	if c.CatalogName == "" {
		return fmt.Errorf("CATALOG_NAME must not be empty")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
