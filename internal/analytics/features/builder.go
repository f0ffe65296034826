package features

import (
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
)

// Matrix is a design matrix. Rows[i] follows Columns; Target is nil for
// the future matrix.
type Matrix struct {
	Columns Schema
	Times   []time.Time
	Rows    [][]float64
	Target  []float64
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.Rows)
}

// TrainingStats counts the rows BuildTraining discarded.
type TrainingStats struct {
	Candidates  int
	NullTarget  int
	MissingLags int // some lag points at a null or pre-series slot
	NullFeature int // rolling mean or weather null
}

// Builder computes feature matrices.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Options returns the builder's options.
func (b *Builder) Options() Options {
	return b.opts
}

// Schema returns the columns produced for series.
func (b *Builder) Schema(series *hourly.Series) Schema {
	return NewSchema(b.opts, series.HasWeather())
}

// BuildTraining returns one row per series slot with a known target and
// fully known features. Every feature of row t only reads slots before t,
// except the weather observed at t itself.
func (b *Builder) BuildTraining(series *hourly.Series) (*Matrix, TrainingStats) {
	schema := b.Schema(series)
	m := &Matrix{Columns: schema}
	stats := TrainingStats{Candidates: series.Len()}

	window := b.opts.RollingWindowHours

	for i, t := range series.Times {
		target := series.KWh[i]
		if analytics.IsNull(target) {
			stats.NullTarget++
			continue
		}

		row := make([]float64, 0, len(schema))
		sin, cos := hourEncoding(t)
		row = append(row, sin, cos)

		lagMissing := false
		for _, k := range b.opts.LagOffsets {
			v := analytics.Null()
			if i-k >= 0 {
				v = series.KWh[i-k]
			}
			if analytics.IsNull(v) {
				lagMissing = true
			}
			row = append(row, v)
		}

		from := i - window
		if from < 0 {
			from = 0
		}
		roll, ok := analytics.Mean(series.KWh[from:i])
		if !ok {
			roll = analytics.Null()
		}
		row = append(row, roll)

		if series.HasWeather() {
			w := series.Weather
			row = append(row, w.Temp[i], lagAt(w.Temp, i), w.RH[i], lagAt(w.RH, i))
		}
		row = appendDow(row, t)

		if lagMissing {
			stats.MissingLags++
			continue
		}
		if hasNull(row) {
			stats.NullFeature++
			continue
		}

		m.Times = append(m.Times, t)
		m.Rows = append(m.Rows, row)
		m.Target = append(m.Target, target)
	}

	return m, stats
}

// BuildFuture returns the Horizon rows after the origin. Nothing in it is
// derived from a value after the origin:
//   - lags shorter than the horizon are pinned to the values observed at the
//     origin (lag_k takes the value at origin-(k-1)h) for every row;
//   - longer lags read the observed value k hours before the row, falling
//     back to the hour-of-day mean;
//   - the rolling mean is the trailing window ending at the origin, held
//     constant;
//   - weather uses the horizon weather, else the last known value, else 0.
func (b *Builder) BuildFuture(series *hourly.Series) *Matrix {
	schema := b.Schema(series)
	times := series.HorizonTimes()
	m := &Matrix{Columns: schema, Times: times, Rows: make([][]float64, len(times))}

	n := series.Len()
	globalMean, hasMean := analytics.Mean(series.KWh)
	if !hasMean {
		globalMean = 0
	}
	hourMeans, hourOK := analytics.HourOfDayMeans(series.Times, series.KWh)

	pinned := make(map[int]float64, len(b.opts.LagOffsets))
	for _, k := range b.opts.LagOffsets {
		if k < hourly.Horizon {
			pinned[k] = lastKnown(series.KWh, n-k, globalMean)
		}
	}

	from := n - b.opts.RollingWindowHours
	if from < 0 {
		from = 0
	}
	roll, ok := analytics.Mean(series.KWh[from:])
	if !ok {
		roll = globalMean
	}

	var temps, rhs, tempLags, rhLags []float64
	if series.HasWeather() {
		temps, tempLags = projectWeather(series.Weather.Temp, horizonColumn(series.HorizonWeather, true))
		rhs, rhLags = projectWeather(series.Weather.RH, horizonColumn(series.HorizonWeather, false))
	}

	for h, t := range times {
		row := make([]float64, 0, len(schema))
		sin, cos := hourEncoding(t)
		row = append(row, sin, cos)

		for _, k := range b.opts.LagOffsets {
			if v, ok := pinned[k]; ok {
				row = append(row, v)
				continue
			}
			src := t.Add(-time.Duration(k) * time.Hour)
			v := series.ValueAt(src)
			if analytics.IsNull(v) {
				v = globalMean
				if hourOK[src.Hour()] {
					v = hourMeans[src.Hour()]
				}
			}
			row = append(row, v)
		}

		row = append(row, roll)

		if series.HasWeather() {
			row = append(row, temps[h], tempLags[h], rhs[h], rhLags[h])
		}
		m.Rows[h] = appendDow(row, t)
	}

	return m
}

// Align returns future reshaped to train's columns: columns future lacks
// are zero, columns train lacks are dropped, order follows train.
func Align(train, future *Matrix) *Matrix {
	out := &Matrix{
		Columns: append(Schema(nil), train.Columns...),
		Times:   append([]time.Time(nil), future.Times...),
		Rows:    make([][]float64, len(future.Rows)),
	}

	src := make([]int, len(train.Columns))
	for j, name := range train.Columns {
		src[j] = -1
		if k, ok := future.Columns.Index(name); ok {
			src[j] = k
		}
	}

	for i, row := range future.Rows {
		aligned := make([]float64, len(train.Columns))
		for j, k := range src {
			if k >= 0 {
				aligned[j] = row[k]
			}
		}
		out.Rows[i] = aligned
	}
	return out
}

func appendDow(row []float64, t time.Time) []float64 {
	d := weekday(t)
	for k := 1; k <= 6; k++ {
		if d == k {
			row = append(row, 1)
		} else {
			row = append(row, 0)
		}
	}
	return row
}

func lagAt(values []float64, i int) float64 {
	if i == 0 {
		return analytics.Null()
	}
	return values[i-1]
}

func hasNull(row []float64) bool {
	for _, v := range row {
		if analytics.IsNull(v) {
			return true
		}
	}
	return false
}

// lastKnown returns the last non-null value at or before index i.
func lastKnown(values []float64, i int, fallback float64) float64 {
	if i >= len(values) {
		i = len(values) - 1
	}
	for ; i >= 0; i-- {
		if !analytics.IsNull(values[i]) {
			return values[i]
		}
	}
	return fallback
}

func horizonColumn(w *hourly.Weather, temp bool) []float64 {
	if w == nil {
		return nil
	}
	if temp {
		return w.Temp
	}
	return w.RH
}

// projectWeather returns the horizon values and their one-hour lags,
// carrying the last known value over gaps.
func projectWeather(history, horizon []float64) ([]float64, []float64) {
	last := lastKnown(history, len(history)-1, 0)
	values := make([]float64, hourly.Horizon)
	lags := make([]float64, hourly.Horizon)

	prev := last
	for h := 0; h < hourly.Horizon; h++ {
		lags[h] = prev
		v := analytics.Null()
		if h < len(horizon) {
			v = horizon[h]
		}
		if analytics.IsNull(v) {
			v = prev
		}
		values[h] = v
		prev = v
	}
	return values, lags
}
