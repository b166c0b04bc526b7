package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's store connections and defaults. Values come from an
// optional YAML file, with environment variables taking precedence.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Timezone string `yaml:"timezone"`

	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// ClickHouseConfig locates the interval usage store.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// PostgresConfig locates the tariff store.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// LoadConfig reads the YAML file at path (skipped when path is empty), then
// applies environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
		Timezone: "UTC",
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "utilitycost",
			Username: "default",
		},
		Postgres: PostgresConfig{
			DSN: "postgres://localhost/utilitycost?sslmode=disable",
		},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.LogLevel = GetEnv("UTILITYCOST_LOG_LEVEL", cfg.LogLevel)
	cfg.Timezone = GetEnv("UTILITYCOST_TIMEZONE", cfg.Timezone)
	cfg.ClickHouse.Host = GetEnv("CLICKHOUSE_HOST", cfg.ClickHouse.Host)
	cfg.ClickHouse.Port = GetEnvInt("CLICKHOUSE_PORT", cfg.ClickHouse.Port)
	cfg.ClickHouse.Database = GetEnv("CLICKHOUSE_DATABASE", cfg.ClickHouse.Database)
	cfg.ClickHouse.Username = GetEnv("CLICKHOUSE_USER", cfg.ClickHouse.Username)
	cfg.ClickHouse.Password = GetEnv("CLICKHOUSE_PASSWORD", cfg.ClickHouse.Password)
	cfg.ClickHouse.Debug = GetEnvBool("CLICKHOUSE_DEBUG", cfg.ClickHouse.Debug)
	cfg.Postgres.DSN = GetEnv("POSTGRES_DSN", cfg.Postgres.DSN)

	return cfg, nil
}

// GetEnv reads an env var with a default.
func GetEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// GetEnvInt reads an integer env var with a default.
func GetEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetEnvBool reads a boolean env var with a default.
func GetEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}
