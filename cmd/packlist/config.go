package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/artpar/packlist/internal/core/domain"
	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Units    UnitsConfig    `mapstructure:"units"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UnitsConfig holds the display labels of the numeric attributes.
// The engine never converts between units.
type UnitsConfig struct {
	Weight string `mapstructure:"weight"`
	Volume string `mapstructure:"volume"`
	Price  string `mapstructure:"price"`
}

// DefaultsConfig holds the prefill values of the new-item and new-pack forms.
type DefaultsConfig struct {
	Name     string  `mapstructure:"name"`
	Function string  `mapstructure:"function"`
	Weight   float64 `mapstructure:"weight"`
	Volume   float64 `mapstructure:"volume"`
	Price    float64 `mapstructure:"price"`
	Amount   int     `mapstructure:"amount"`
}

// SeedConfig holds the optional seed import.
type SeedConfig struct {
	// Path of a YAML seed file applied at start when the database is empty.
	// Empty disables seeding.
	Path string `mapstructure:"path"`
}

// Domain converts the unit and form settings into the values served to
// UI collaborators.
func (c *Config) Domain() domain.Defaults {
	return domain.Defaults{
		Units: domain.Units{
			Weight: c.Units.Weight,
			Volume: c.Units.Volume,
			Price:  c.Units.Price,
		},
		Item: domain.ItemDefaults{
			Name:     c.Defaults.Name,
			Function: c.Defaults.Function,
			Weight:   c.Defaults.Weight,
			Volume:   c.Defaults.Volume,
			Price:    c.Defaults.Price,
			Amount:   c.Defaults.Amount,
		},
		Pack: domain.PackDefaults{
			Name:     c.Defaults.Name,
			Function: c.Defaults.Function,
		},
	}
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/packlist.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Unit labels
	v.SetDefault("units.weight", "kg")
	v.SetDefault("units.volume", "L")
	v.SetDefault("units.price", "CHF")

	// Form prefill
	v.SetDefault("defaults.name", "Give a Name")
	v.SetDefault("defaults.function", "Describe Function")
	v.SetDefault("defaults.weight", 0)
	v.SetDefault("defaults.volume", 0)
	v.SetDefault("defaults.price", 0)
	v.SetDefault("defaults.amount", 0)

	v.SetDefault("seed.path", "")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("PACKLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Defaults.Weight < 0 || c.Defaults.Volume < 0 || c.Defaults.Price < 0 || c.Defaults.Amount < 0 {
		return fmt.Errorf("defaults cannot be negative")
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
