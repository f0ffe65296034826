package features

import (
	"math"
	"testing"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2020-03-02 is a Monday.
var monday = time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)

func rampSeries(hours int) *hourly.Series {
	s := &hourly.Series{Times: make([]time.Time, hours), KWh: make([]float64, hours)}
	for i := range s.Times {
		s.Times[i] = monday.Add(time.Duration(i) * time.Hour)
		s.KWh[i] = float64(i)
	}
	return s
}

func withWeather(s *hourly.Series, horizon *hourly.Weather) *hourly.Series {
	w := &hourly.Weather{Temp: make([]float64, s.Len()), RH: make([]float64, s.Len())}
	for i := range w.Temp {
		w.Temp[i] = 20 + float64(i%24)
		w.RH[i] = 50
	}
	return s.WithWeather(w, horizon)
}

func cell(t *testing.T, m *Matrix, row int, col string) float64 {
	t.Helper()
	j, ok := m.Columns.Index(col)
	require.True(t, ok, "missing column %s", col)
	return m.Rows[row][j]
}

func TestSchemaOrder(t *testing.T) {
	plain := NewSchema(DefaultOptions(), false)
	assert.Equal(t, Schema{
		"hour_sin", "hour_cos", "lag_1", "lag_2", "lag_3", "lag_24", "roll24",
		"dow_1", "dow_2", "dow_3", "dow_4", "dow_5", "dow_6",
	}, plain)

	weather := NewSchema(DefaultOptions(), true)
	assert.Len(t, weather, 17)
	assert.Equal(t, Schema{"temp", "temp_lag1", "rh", "rh_lag1"}, weather[7:11])
}

func TestTrainingAndFutureColumnsMatch(t *testing.T) {
	b := NewBuilder(DefaultOptions())
	for _, s := range []*hourly.Series{rampSeries(169), withWeather(rampSeries(169), nil)} {
		train, _ := b.BuildTraining(s)
		future := b.BuildFuture(s)
		assert.True(t, train.Columns.Equal(future.Columns))
		assert.True(t, train.Columns.Equal(Align(train, future).Columns))
		for _, row := range future.Rows {
			assert.Len(t, row, len(train.Columns))
		}
	}
}

func TestTrainingRollingMeanExcludesCurrentHour(t *testing.T) {
	b := NewBuilder(DefaultOptions())
	train, _ := b.BuildTraining(rampSeries(100))

	for i, ts := range train.Times {
		idx := int(ts.Sub(monday) / time.Hour)
		// mean of idx-24 .. idx-1
		want := float64(idx) - 12.5
		assert.InDelta(t, want, cell(t, train, i, "roll24"), 1e-9)
		assert.Equal(t, float64(idx-1), cell(t, train, i, "lag_1"))
		assert.Equal(t, float64(idx-24), cell(t, train, i, "lag_24"))
		assert.Equal(t, float64(idx), train.Target[i])
	}
}

func TestTrainingDropsRowsWithMissingHistory(t *testing.T) {
	s := rampSeries(100)
	for i := 50; i <= 52; i++ {
		s.KWh[i] = analytics.Null()
	}

	train, stats := NewBuilder(DefaultOptions()).BuildTraining(s)

	assert.Equal(t, 100, stats.Candidates)
	assert.Equal(t, 3, stats.NullTarget)
	// rows 0..23 (no lag_24), 53..55 (lag_1..3), 74..76 (lag_24)
	assert.Equal(t, 30, stats.MissingLags)
	assert.Equal(t, 67, train.Len())

	for _, ts := range train.Times {
		idx := int(ts.Sub(monday) / time.Hour)
		assert.False(t, idx >= 50 && idx <= 55, "row %d should be dropped", idx)
	}
	for _, row := range train.Rows {
		assert.False(t, hasNull(row))
	}
}

func TestFutureLagsArePinnedAtOrigin(t *testing.T) {
	s := rampSeries(100)
	future := NewBuilder(DefaultOptions()).BuildFuture(s)

	require.Equal(t, hourly.Horizon, future.Len())
	assert.Equal(t, s.Origin().Add(time.Hour), future.Times[0])
	assert.Equal(t, s.Origin().Add(24*time.Hour), future.Times[23])

	for h := 0; h < hourly.Horizon; h++ {
		assert.Equal(t, 99.0, cell(t, future, h, "lag_1"))
		assert.Equal(t, 98.0, cell(t, future, h, "lag_2"))
		assert.Equal(t, 97.0, cell(t, future, h, "lag_3"))
		assert.Equal(t, float64(76+h), cell(t, future, h, "lag_24"))
		assert.InDelta(t, 87.5, cell(t, future, h, "roll24"), 1e-9)
	}
}

func TestFutureFallbacks(t *testing.T) {
	s := rampSeries(100)
	s.KWh[99] = analytics.Null()
	s.KWh[76] = analytics.Null()

	future := NewBuilder(DefaultOptions()).BuildFuture(s)

	// lag_1 falls back to the last observed value
	assert.Equal(t, 98.0, cell(t, future, 0, "lag_1"))
	// lag_24 of the first row points at slot 76: hour-of-day mean of 04:00 (slots 4, 28, 52)
	assert.InDelta(t, (4.0+28+52)/3, cell(t, future, 0, "lag_24"), 1e-9)
	for _, row := range future.Rows {
		assert.False(t, hasNull(row))
	}
}

func TestFutureWeather(t *testing.T) {
	horizon := &hourly.Weather{Temp: make([]float64, hourly.Horizon), RH: make([]float64, hourly.Horizon)}
	for h := range horizon.Temp {
		horizon.Temp[h] = 30 + float64(h)
		horizon.RH[h] = 40
	}
	horizon.Temp[5] = analytics.Null()

	s := withWeather(rampSeries(48), horizon)
	future := NewBuilder(DefaultOptions()).BuildFuture(s)

	// origin is slot 47, hour 23
	assert.Equal(t, 43.0, cell(t, future, 0, "temp_lag1"))
	assert.Equal(t, 30.0, cell(t, future, 0, "temp"))
	assert.Equal(t, 30.0, cell(t, future, 1, "temp_lag1"))
	assert.Equal(t, 34.0, cell(t, future, 5, "temp"), "gap carries the last known value")
	assert.Equal(t, 40.0, cell(t, future, 23, "rh"))
}

func TestFutureWeatherWithoutHorizon(t *testing.T) {
	s := withWeather(rampSeries(48), nil)
	future := NewBuilder(DefaultOptions()).BuildFuture(s)

	for h := 0; h < hourly.Horizon; h++ {
		assert.Equal(t, 43.0, cell(t, future, h, "temp"))
		assert.Equal(t, 50.0, cell(t, future, h, "rh_lag1"))
	}
}

func TestDayOfWeekDummies(t *testing.T) {
	s := rampSeries(8 * 24)
	train, _ := NewBuilder(DefaultOptions()).BuildTraining(s)

	for i, ts := range train.Times {
		sum := 0.0
		for d := 1; d <= 6; d++ {
			sum += cell(t, train, i, DowColumn(d))
		}
		switch ts.Weekday() {
		case time.Monday:
			assert.Equal(t, 0.0, sum)
		case time.Sunday:
			assert.Equal(t, 1.0, cell(t, train, i, "dow_6"))
		default:
			assert.Equal(t, 1.0, sum)
		}
	}
}

func TestHourEncoding(t *testing.T) {
	sin, cos := hourEncoding(monday.Add(6 * time.Hour))
	assert.InDelta(t, 1, sin, 1e-12)
	assert.InDelta(t, 0, cos, 1e-12)

	sin23, cos23 := hourEncoding(monday.Add(23 * time.Hour))
	sin0, cos0 := hourEncoding(monday)
	// 23:00 and 00:00 are neighbours on the circle
	dist := math.Hypot(sin23-sin0, cos23-cos0)
	assert.Less(t, dist, 0.27)
}

func TestAlignInsertsAndReorders(t *testing.T) {
	train := &Matrix{Columns: Schema{"a", "temp", "b", "dow_3"}}
	future := &Matrix{
		Columns: Schema{"b", "a", "extra"},
		Times:   []time.Time{monday},
		Rows:    [][]float64{{2, 1, 9}},
	}

	aligned := Align(train, future)

	assert.Equal(t, train.Columns, aligned.Columns)
	assert.Equal(t, []float64{1, 0, 2, 0}, aligned.Rows[0])
	assert.Equal(t, Schema{"b", "a", "extra"}, future.Columns, "input must not be modified")
}
