// Package forecast produces the 24-hour-ahead demand forecasts and scores
// them against observed values.
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/features"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
)

var (
	// ErrModel is returned when a model cannot be fitted.
	ErrModel = errors.New("model error")
	// ErrEmptySeries is returned when there is nothing to forecast from.
	ErrEmptySeries = errors.New("empty series")
)

// ForecastPoint represents a single forecast prediction
type ForecastPoint struct {
	Time  time.Time `json:"timestamp"`
	Value float64   `json:"yhat"`
}

// MarshalJSON encodes a null prediction as JSON null.
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	out := struct {
		Time  time.Time `json:"timestamp"`
		Value *float64  `json:"yhat"`
	}{Time: p.Time}
	if !analytics.IsNull(p.Value) {
		v := p.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// ModelInfo contains metadata about the forecast model
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	DataPoints int                    `json:"data_points"` // observations the model used
}

// ForecastResult contains the forecast predictions and model information
type ForecastResult struct {
	Predictions []ForecastPoint `json:"predictions"`
	ModelInfo   ModelInfo       `json:"model_info"`
	Ridge       *RidgeModel     `json:"ridge,omitempty"`
}

// Values returns the predicted values in horizon order.
func (r *ForecastResult) Values() []float64 {
	out := make([]float64, len(r.Predictions))
	for i, p := range r.Predictions {
		out[i] = p.Value
	}
	return out
}

// ForecastConfig holds configuration for forecasting
type ForecastConfig struct {
	Alpha    float64 // ridge L2 penalty
	Features features.Options
}

// DefaultForecastConfig returns alpha 1.0 and the default feature options
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Alpha:    1.0,
		Features: features.DefaultOptions(),
	}
}

// Forecaster interface for all forecasting algorithms
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// Forecast predicts the hourly.Horizon hours after the series origin
	Forecast(series *hourly.Series, config ForecastConfig) (*ForecastResult, error)
}

var forecasterRegistry = make(map[string]Forecaster)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(name string, forecaster Forecaster) {
	forecasterRegistry[name] = forecaster
}

// GetForecaster returns a forecaster by name
func GetForecaster(name string) (Forecaster, error) {
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("unknown forecaster: %s", name)
}

// ListForecasters returns the sorted names of available forecasters
func ListForecasters() []string {
	names := make([]string, 0, len(forecasterRegistry))
	for name := range forecasterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
