package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
	"github.com/gridcast/gridcast/internal/logging"
)

// Location is where and in which timezone weather is requested.
type Location struct {
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Fetch is the outcome of an enrichment attempt. When Available is false,
// Series is the input series unchanged and Reason says why.
type Fetch struct {
	Series    *hourly.Series
	Available bool
	Reason    error
}

// Enricher joins provider weather onto an hourly series.
type Enricher struct {
	provider     Provider
	location     Location
	gapFillLimit int
	logger       *logging.Logger
}

// NewEnricher creates an enricher. gapFillLimit bounds the forward and
// backward fill applied to each weather column.
func NewEnricher(provider Provider, location Location, gapFillLimit int, logger *logging.Logger) *Enricher {
	return &Enricher{
		provider:     provider,
		location:     location,
		gapFillLimit: gapFillLimit,
		logger:       logger,
	}
}

// Request returns the provider request covering series and its horizon.
func (e *Enricher) Request(series *hourly.Series) Request {
	return Request{
		Latitude:  e.location.Latitude,
		Longitude: e.location.Longitude,
		StartDate: series.Start(),
		EndDate:   series.Origin().Add(hourly.Horizon * time.Hour),
		Variables: []string{Temperature, RelativeHumidity},
		Timezone:  e.location.Timezone,
	}
}

// Enrich fetches weather for series. Provider failures never escape: they
// are logged and reported through Fetch.Reason.
func (e *Enricher) Enrich(ctx context.Context, series *hourly.Series) Fetch {
	req := e.Request(series)

	data, err := e.provider.Fetch(ctx, req)
	if err != nil {
		e.logger.Warn("Weather unavailable, continuing without weather features",
			"start_date", req.StartDate.Format(time.DateOnly),
			"end_date", req.EndDate.Format(time.DateOnly),
			"error", err)
		return Fetch{Series: series, Available: false, Reason: err}
	}

	history, horizon, nulls := e.join(series, data)
	if name, empty := emptyColumn(history); empty {
		err := fmt.Errorf("%w: provider returned no %s values for the history window", ErrUnavailable, name)
		e.logger.Warn("Weather unavailable, continuing without weather features", "error", err)
		return Fetch{Series: series, Available: false, Reason: err}
	}
	e.logger.Info("Weather joined",
		"provider_hours", len(data.Times),
		"null_slots", nulls)

	return Fetch{Series: series.WithWeather(history, horizon), Available: true}
}

// emptyColumn reports the first weather column with no value at all.
func emptyColumn(w *hourly.Weather) (string, bool) {
	if len(analytics.NonNull(w.Temp)) == 0 {
		return Temperature, true
	}
	if len(analytics.NonNull(w.RH)) == 0 {
		return RelativeHumidity, true
	}
	return "", false
}

// join aligns data onto the series slots followed by the horizon slots and
// fills each column forward then backward, up to gapFillLimit hours.
func (e *Enricher) join(series *hourly.Series, data *Hourly) (*hourly.Weather, *hourly.Weather, int) {
	timeline := append(append([]time.Time(nil), series.Times...), series.HorizonTimes()...)

	index := make(map[time.Time]int, len(data.Times))
	for i, t := range data.Times {
		index[t] = i
	}

	columns := make(map[string][]float64, 2)
	nulls := 0
	for _, name := range []string{Temperature, RelativeHumidity} {
		src := data.Values[name]
		col := make([]float64, len(timeline))
		for i, t := range timeline {
			col[i] = analytics.Null()
			if j, ok := index[t]; ok && j < len(src) {
				col[i] = src[j]
			}
		}
		col, _ = analytics.ForwardFill(col, e.gapFillLimit)
		col, _ = analytics.BackwardFill(col, e.gapFillLimit)
		for _, v := range col[:series.Len()] {
			if analytics.IsNull(v) {
				nulls++
			}
		}
		columns[name] = col
	}

	n := series.Len()
	history := &hourly.Weather{
		Temp: columns[Temperature][:n],
		RH:   columns[RelativeHumidity][:n],
	}
	horizon := &hourly.Weather{
		Temp: columns[Temperature][n:],
		RH:   columns[RelativeHumidity][n:],
	}
	return history, horizon, nulls
}
