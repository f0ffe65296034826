package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/logging"
)

func TestNewProvider(t *testing.T) {
	assert.Nil(t, NewProvider(config.WeatherConfig{}, logging.Nop()))

	p := NewProvider(config.WeatherConfig{BaseURL: "https://api.open-meteo.com/", Timeout: time.Second}, logging.Nop())
	client, ok := p.(*OpenMeteoClient)
	if assert.True(t, ok) {
		assert.Equal(t, "https://api.open-meteo.com", client.baseURL)
		assert.Equal(t, time.Second, client.client.Timeout)
	}

	p = NewProvider(config.WeatherConfig{BaseURL: "http://localhost", CacheDir: t.TempDir()}, logging.Nop())
	_, ok = p.(*CachedProvider)
	assert.True(t, ok)
}
