package weather

import (
	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/logging"
)

// NewProvider builds the Open-Meteo provider described by cfg, wrapped in
// the on-disk cache when a cache dir is set. It returns nil when no base URL
// is configured.
func NewProvider(cfg config.WeatherConfig, logger *logging.Logger) Provider {
	if cfg.BaseURL == "" {
		return nil
	}

	var provider Provider = NewOpenMeteoClient(cfg.BaseURL, cfg.Timeout)
	if cfg.CacheDir != "" {
		provider = NewCachedProvider(provider, cfg.CacheDir, logger)
	}
	return provider
}
