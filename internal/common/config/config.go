// Package config provides configuration management for Sprintdeck.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for Sprintdeck.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Burndown BurndownConfig `mapstructure:"burndown"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// DatabaseConfig holds the remote data gateway (PostgreSQL) configuration.
// An empty host selects the in-memory gateway.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`
}

// NATSConfig holds NATS messaging configuration.
// An empty URL selects the in-memory event bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// CacheConfig holds entity cache freshness and fan-out pacing configuration.
type CacheConfig struct {
	MaxAgeMs     int    `mapstructure:"maxAgeMs"`     // freshness window for cached scopes
	FanoutGapMs  int    `mapstructure:"fanoutGapMs"`  // spacing between sequential fan-out fetches
	AutoRefresh  string `mapstructure:"autoRefresh"`  // cron expression for background refresh, empty disables
	RefreshLimit int    `mapstructure:"refreshLimit"` // max sessions refreshed per cron tick
}

// RetryConfig holds bounded retry configuration for remote gateway calls.
type RetryConfig struct {
	Attempts int `mapstructure:"attempts"`
	DelayMs  int `mapstructure:"delayMs"`
}

// BurndownConfig holds burndown persistence configuration.
type BurndownConfig struct {
	DBPath          string `mapstructure:"dbPath"` // sqlite file path, empty selects in-memory store
	PlaceholderDays int    `mapstructure:"placeholderDays"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// MaxAge returns the cache freshness window as a time.Duration.
func (c *CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMs) * time.Millisecond
}

// FanoutGap returns the fan-out spacing as a time.Duration.
func (c *CacheConfig) FanoutGap() time.Duration {
	return time.Duration(c.FanoutGapMs) * time.Millisecond
}

// Delay returns the retry delay as a time.Duration.
func (r *RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// detectDefaultLogFormat returns the appropriate log format based on environment.
func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("SPRINTDECK_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database defaults - empty host means use the in-memory gateway
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sprintdeck")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "sprintdeck")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "sprintdeck-client")
	v.SetDefault("nats.maxReconnects", 10)

	// Cache defaults
	v.SetDefault("cache.maxAgeMs", 60000)
	v.SetDefault("cache.fanoutGapMs", 150)
	v.SetDefault("cache.autoRefresh", "@every 5m")
	v.SetDefault("cache.refreshLimit", 16)

	// Retry defaults
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delayMs", 250)

	// Burndown defaults
	v.SetDefault("burndown.dbPath", "")
	v.SetDefault("burndown.placeholderDays", 21)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix SPRINTDECK_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory or /etc/sprintdeck/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("SPRINTDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/sprintdeck/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
// In development mode (default), most fields are optional.
func validate(cfg *Config) error {
	var errs []string

	// Server validation - always required
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	// Database validation - only if host is set (optional for in-memory mode)
	if cfg.Database.Host != "" {
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required when database.host is set")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required when database.host is set")
		}
	}

	// Cache validation
	if cfg.Cache.MaxAgeMs <= 0 {
		errs = append(errs, "cache.maxAgeMs must be positive")
	}
	if cfg.Cache.FanoutGapMs < 0 {
		errs = append(errs, "cache.fanoutGapMs must not be negative")
	}

	// Retry validation
	if cfg.Retry.Attempts <= 0 {
		errs = append(errs, "retry.attempts must be positive")
	}
	if cfg.Retry.DelayMs < 0 {
		errs = append(errs, "retry.delayMs must not be negative")
	}

	// Burndown validation
	if cfg.Burndown.PlaceholderDays <= 0 {
		errs = append(errs, "burndown.placeholderDays must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
