package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment and defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/gridcast")
	}

	setDefaults(v)

	// GRIDCAST_PIPELINE_HISTORY_DAYS overrides pipeline.history_days
	v.SetEnvPrefix("GRIDCAST")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.timestamp_column", d.Input.TimestampColumn)
	v.SetDefault("input.value_column", d.Input.ValueColumn)

	v.SetDefault("pipeline.city", d.Pipeline.City)
	v.SetDefault("pipeline.history_days", d.Pipeline.HistoryDays)

	for name, city := range d.Cities {
		v.SetDefault("cities."+name+".latitude", city.Latitude)
		v.SetDefault("cities."+name+".longitude", city.Longitude)
		v.SetDefault("cities."+name+".timezone", city.Timezone)
	}

	v.SetDefault("series.gap_fill_limit", d.Series.GapFillLimit)
	v.SetDefault("series.clip_lower", d.Series.ClipLower)
	v.SetDefault("series.clip_upper", d.Series.ClipUpper)

	v.SetDefault("features.lag_offsets", d.Features.LagOffsets)
	v.SetDefault("features.rolling_window_hours", d.Features.RollingWindowHours)

	v.SetDefault("ridge.alpha", d.Ridge.Alpha)

	v.SetDefault("weather.enabled", d.Weather.Enabled)
	v.SetDefault("weather.base_url", d.Weather.BaseURL)
	v.SetDefault("weather.timeout", d.Weather.Timeout.String())
	v.SetDefault("weather.gap_fill_limit", d.Weather.GapFillLimit)
	v.SetDefault("weather.cache_dir", d.Weather.CacheDir)

	v.SetDefault("evaluation.backtest", d.Evaluation.Backtest)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.make_plots", d.Output.MakePlots)
	v.SetDefault("output.save_report", d.Output.SaveReport)
	v.SetDefault("output.plot_history_days", d.Output.PlotHistoryDays)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.subject", d.Queue.Subject)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Path:            "data/raw/CEEW - Smart meter data Bareilly 2020.csv",
			TimestampColumn: "x_Timestamp",
			ValueColumn:     "t_kWh",
		},
		Pipeline: PipelineConfig{
			City:        "bareilly",
			HistoryDays: 7,
		},
		Cities: map[string]CityConfig{
			"bareilly": {
				Latitude:  28.3670,
				Longitude: 79.4305,
				Timezone:  "Asia/Kolkata",
			},
		},
		Series: SeriesConfig{
			GapFillLimit: 2,
			ClipLower:    0.01,
			ClipUpper:    0.99,
		},
		Features: FeaturesConfig{
			LagOffsets:         []int{1, 2, 3, 24},
			RollingWindowHours: 24,
		},
		Ridge: RidgeConfig{
			Alpha: 1.0,
		},
		Weather: WeatherConfig{
			Enabled:      true,
			BaseURL:      "https://api.open-meteo.com",
			Timeout:      30 * time.Second,
			GapFillLimit: 3,
		},
		Evaluation: EvaluationConfig{
			Backtest: false,
		},
		Output: OutputConfig{
			Dir:             "results",
			MakePlots:       true,
			SaveReport:      true,
			PlotHistoryDays: 3,
		},
		Queue: QueueConfig{
			Type:    "none",
			Subject: "gridcast.forecast.completed",
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
