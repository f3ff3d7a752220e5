package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration for the pairlab tools.
// Strategy parameters (window, z-score thresholds, capital) live in
// internal/strategyconfig, not here.
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Files
	Data DataConfig

	// Optional persistence
	Database   DatabaseConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig

	// External sources
	Fetch FetchConfig

	// Logging
	LogLevel  string
	LogFormat string

	// MetricsTextfile is the Prometheus textfile written after each run.
	// Empty disables the export.
	MetricsTextfile string
}

// DataConfig holds file locations used by the CLI.
type DataConfig struct {
	Dir            string
	PricesFile     string
	ValuesFile     string
	PairsFile      string
	StrategyConfig string
}

// PricesPath returns the price CSV path inside the data directory.
func (d DataConfig) PricesPath() string { return d.resolve(d.PricesFile) }

// ValuesPath returns the portfolio value CSV path inside the data directory.
func (d DataConfig) ValuesPath() string { return d.resolve(d.ValuesFile) }

// PairsPath returns the pair report CSV path inside the data directory.
func (d DataConfig) PairsPath() string { return d.resolve(d.PairsFile) }

func (d DataConfig) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether relational persistence is configured.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// ClickHouseConfig holds the time-series store configuration
type ClickHouseConfig struct {
	DSN string
}

// Enabled reports whether the ClickHouse store is configured.
func (c ClickHouseConfig) Enabled() bool { return c.DSN != "" }

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// FetchConfig holds the price download settings.
type FetchConfig struct {
	SP500URL      string
	YahooBaseURL  string
	RatePerSecond float64 // 요청 간격 (2 = 0.5초)
	Workers       int
	Timeout       time.Duration
	MaxRetries    int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Data: DataConfig{
			Dir:            getEnv("DATA_DIR", "data"),
			PricesFile:     getEnv("PRICES_FILE", "sp500_adj_close.csv"),
			ValuesFile:     getEnv("VALUES_FILE", "portfolio_value.csv"),
			PairsFile:      getEnv("PAIRS_FILE", "cointegrated_pairs.csv"),
			StrategyConfig: getEnv("STRATEGY_CONFIG", ""),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		ClickHouse: ClickHouseConfig{
			DSN: getEnv("CLICKHOUSE_DSN", ""),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "24h"),
		},

		Fetch: FetchConfig{
			SP500URL:      getEnv("SP500_URL", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"),
			YahooBaseURL:  getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RatePerSecond: getEnvAsFloat("FETCH_RATE_PER_SEC", 2),
			Workers:       getEnvAsInt("FETCH_WORKERS", 4),
			Timeout:       getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries:    getEnvAsInt("HTTP_MAX_RETRIES", 3),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration ranges
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Fetch.RatePerSecond <= 0 {
		return fmt.Errorf("FETCH_RATE_PER_SEC must be positive")
	}

	if c.Fetch.Workers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1")
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
