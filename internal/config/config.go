package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Input      InputConfig           `mapstructure:"input"`
	Pipeline   PipelineConfig        `mapstructure:"pipeline"`
	Cities     map[string]CityConfig `mapstructure:"cities"`
	Series     SeriesConfig          `mapstructure:"series"`
	Features   FeaturesConfig        `mapstructure:"features"`
	Ridge      RidgeConfig           `mapstructure:"ridge"`
	Weather    WeatherConfig         `mapstructure:"weather"`
	Evaluation EvaluationConfig      `mapstructure:"evaluation"`
	Output     OutputConfig          `mapstructure:"output"`
	Queue      QueueConfig           `mapstructure:"queue"`
	Server     ServerConfig          `mapstructure:"server"`
	Auth       AuthConfig            `mapstructure:"auth"`
	Logging    LoggingConfig         `mapstructure:"logging"`
}

// InputConfig describes the raw smart-meter CSV
type InputConfig struct {
	Path            string `mapstructure:"path"`
	TimestampColumn string `mapstructure:"timestamp_column"`
	ValueColumn     string `mapstructure:"value_column"`
}

// PipelineConfig holds per-run settings
type PipelineConfig struct {
	City        string `mapstructure:"city"`
	HistoryDays int    `mapstructure:"history_days"`
}

// CityConfig locates a city for the weather provider.
// Timezone is also the wall clock the meter timestamps are expressed in.
type CityConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Timezone  string  `mapstructure:"timezone"` // IANA name or offset such as "+05:30"
}

// SeriesConfig controls hourly cleaning
type SeriesConfig struct {
	GapFillLimit int     `mapstructure:"gap_fill_limit"`
	ClipLower    float64 `mapstructure:"clip_lower"` // quantile in [0,1]
	ClipUpper    float64 `mapstructure:"clip_upper"`
}

// FeaturesConfig controls the regression design matrix
type FeaturesConfig struct {
	LagOffsets         []int `mapstructure:"lag_offsets"`
	RollingWindowHours int   `mapstructure:"rolling_window_hours"`
}

// RidgeConfig holds the L2 penalty
type RidgeConfig struct {
	Alpha float64 `mapstructure:"alpha"`
}

// WeatherConfig configures the optional weather enrichment
type WeatherConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	GapFillLimit int           `mapstructure:"gap_fill_limit"`
	CacheDir     string        `mapstructure:"cache_dir"` // empty disables the response cache
}

// EvaluationConfig toggles the holdout backtest
type EvaluationConfig struct {
	Backtest bool `mapstructure:"backtest"`
}

// OutputConfig controls run artifacts
type OutputConfig struct {
	Dir             string `mapstructure:"dir"`
	MakePlots       bool   `mapstructure:"make_plots"`
	SaveReport      bool   `mapstructure:"save_report"`
	PlotHistoryDays int    `mapstructure:"plot_history_days"`
}

// QueueConfig represents result publishing configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`    // none (default), memory, nats, redis, kafka
	URL      string `mapstructure:"url"`     // e.g. nats://localhost:4222, redis://localhost:6379
	Subject  string `mapstructure:"subject"` // subject, stream or topic the run summary goes to
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	RedisDB      int      `mapstructure:"redis_db"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	HTTPPort int    `mapstructure:"http_port"`
}

// AuthConfig represents API key authentication for the run endpoints
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"api_keys"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if _, err := c.City(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if err := c.Series.Validate(); err != nil {
		return fmt.Errorf("series config: %w", err)
	}
	if err := c.Features.Validate(); err != nil {
		return fmt.Errorf("features config: %w", err)
	}
	if c.Ridge.Alpha < 0 {
		return fmt.Errorf("ridge config: alpha must be non-negative, got %v", c.Ridge.Alpha)
	}
	if err := c.Weather.Validate(); err != nil {
		return fmt.Errorf("weather config: %w", err)
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// City returns the configured city for the current pipeline
func (c *Config) City() (CityConfig, error) {
	city, ok := c.Cities[strings.ToLower(c.Pipeline.City)]
	if !ok {
		return CityConfig{}, fmt.Errorf("unknown city %q", c.Pipeline.City)
	}
	return city, nil
}

// Validate validates pipeline configuration
func (c *PipelineConfig) Validate() error {
	if c.City == "" {
		return fmt.Errorf("city is required")
	}
	if c.HistoryDays < 1 {
		return fmt.Errorf("history_days must be at least 1, got %d", c.HistoryDays)
	}
	return nil
}

// Validate validates series configuration
func (c *SeriesConfig) Validate() error {
	if c.GapFillLimit < 0 {
		return fmt.Errorf("gap_fill_limit must be non-negative")
	}
	if c.ClipLower < 0 || c.ClipUpper > 1 || c.ClipLower >= c.ClipUpper {
		return fmt.Errorf("clip quantiles must satisfy 0 <= clip_lower < clip_upper <= 1")
	}
	return nil
}

// Validate validates feature configuration
func (c *FeaturesConfig) Validate() error {
	if len(c.LagOffsets) == 0 {
		return fmt.Errorf("lag_offsets must not be empty")
	}
	seen := make(map[int]bool, len(c.LagOffsets))
	for _, k := range c.LagOffsets {
		if k < 1 {
			return fmt.Errorf("lag offset must be positive, got %d", k)
		}
		if seen[k] {
			return fmt.Errorf("duplicate lag offset %d", k)
		}
		seen[k] = true
	}
	if c.RollingWindowHours < 1 {
		return fmt.Errorf("rolling_window_hours must be positive")
	}
	return nil
}

// Validate validates weather configuration
func (c *WeatherConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required when weather is enabled")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.GapFillLimit < 0 {
		return fmt.Errorf("gap_fill_limit must be non-negative")
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "none", "memory":
		return nil
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("kafka_brokers or url is required for kafka")
		}
	default:
		return fmt.Errorf("unsupported queue type: %s", c.Type)
	}
	if c.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("auth enabled but no api_keys configured")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}
