package forecast

import (
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
)

// SeasonalNaiveForecaster predicts each horizon hour with the value observed
// 24 hours earlier.
type SeasonalNaiveForecaster struct{}

// NewSeasonalNaiveForecaster creates a new seasonal naive forecaster
func NewSeasonalNaiveForecaster() *SeasonalNaiveForecaster {
	return &SeasonalNaiveForecaster{}
}

func init() {
	RegisterForecaster("seasonal_naive", NewSeasonalNaiveForecaster())
}

// Name returns the algorithm name
func (f *SeasonalNaiveForecaster) Name() string {
	return "seasonal_naive"
}

// Forecast uses, for h = 1..24, the value at origin-24h+h. A missing value
// falls back to the mean of that hour of day, then to the series mean, then 0.
func (f *SeasonalNaiveForecaster) Forecast(series *hourly.Series, _ ForecastConfig) (*ForecastResult, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}

	hourMeans, hourOK := analytics.HourOfDayMeans(series.Times, series.KWh)
	globalMean, _ := analytics.Mean(series.KWh)

	origin := series.Origin()
	predictions := make([]ForecastPoint, hourly.Horizon)
	fallbacks := 0

	for h := 1; h <= hourly.Horizon; h++ {
		src := origin.Add(time.Duration(h-hourly.Horizon) * time.Hour)
		v := series.ValueAt(src)
		if analytics.IsNull(v) {
			fallbacks++
			v = globalMean
			if hourOK[src.Hour()] {
				v = hourMeans[src.Hour()]
			}
		}
		predictions[h-1] = ForecastPoint{
			Time:  origin.Add(time.Duration(h) * time.Hour),
			Value: v,
		}
	}

	return &ForecastResult{
		Predictions: predictions,
		ModelInfo: ModelInfo{
			Algorithm: f.Name(),
			Parameters: map[string]interface{}{
				"season_hours": hourly.Horizon,
				"fallbacks":    fallbacks,
			},
			DataPoints: len(analytics.NonNull(series.KWh)),
		},
	}, nil
}
