package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sink types selectable with SINK_TYPE
const (
	SinkPostgres = "postgres"
	SinkSheets   = "sheets"
	SinkCSV      = "csv"
)

type Config struct {
	Database DatabaseConfig
	Sheets   SheetsConfig
	CSV      CSVConfig
	Sync     SyncRuntimeConfig
	App      AppConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// SheetsConfig holds the Google Sheets sink settings
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	RawTab          string
	RegisterTab     string
}

type CSVConfig struct {
	Dir string
}

// SyncRuntimeConfig holds how and how often runs happen
type SyncRuntimeConfig struct {
	ConfigPath       string
	Interval         time.Duration
	DeviceTimeout    time.Duration
	FetchConcurrency int
	SinkType         string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// Load reads the environment, after applying a .env file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Debug("No .env file found, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_sync"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
	}

	config.Sheets = SheetsConfig{
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		SpreadsheetID:   getEnv("SHEET_ID", ""),
		RawTab:          getEnv("RAW_TAB", "RawLogs"),
		RegisterTab:     getEnv("REGISTER_TAB", "DailyRegister"),
	}

	config.CSV = CSVConfig{
		Dir: getEnv("CSV_DIR", "./data"),
	}

	// Sync configuration
	interval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	deviceTimeout, err := time.ParseDuration(getEnv("DEVICE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_TIMEOUT: %w", err)
	}
	concurrency, err := strconv.Atoi(getEnv("DEVICE_FETCH_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_FETCH_CONCURRENCY: %w", err)
	}

	config.Sync = SyncRuntimeConfig{
		ConfigPath:       getEnv("SYNC_CONFIG_PATH", "configs/sync.yaml"),
		Interval:         interval,
		DeviceTimeout:    deviceTimeout,
		FetchConcurrency: concurrency,
		SinkType:         strings.ToLower(getEnv("SINK_TYPE", SinkCSV)),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Sync.SinkType {
	case SinkPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.Database.MaxConns < 2 {
			return fmt.Errorf("DB_MAX_CONNS must be at least 2")
		}
	case SinkSheets:
		if c.Sheets.CredentialsFile == "" {
			return fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required")
		}
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("SHEET_ID is required")
		}
		if c.Sheets.RawTab == c.Sheets.RegisterTab {
			return fmt.Errorf("RAW_TAB and REGISTER_TAB must differ")
		}
	case SinkCSV:
		if c.CSV.Dir == "" {
			return fmt.Errorf("CSV_DIR is required")
		}
	default:
		return fmt.Errorf("SINK_TYPE must be one of: %s, %s, %s", SinkPostgres, SinkSheets, SinkCSV)
	}

	if c.Sync.Interval < time.Second {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1s")
	}
	if c.Sync.DeviceTimeout <= 0 {
		return fmt.Errorf("DEVICE_TIMEOUT must be positive")
	}
	if c.Sync.FetchConcurrency < 0 {
		return fmt.Errorf("DEVICE_FETCH_CONCURRENCY must not be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
