package hourly

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
)

// ErrNoData is returned when there is nothing to build a series from.
var ErrNoData = errors.New("no readings with a valid timestamp and value")

// Builder turns raw readings into a continuous hourly series.
type Builder struct {
	HistoryDays  int
	GapFillLimit int     // max consecutive null hours carried forward
	ClipLower    float64 // lower capping quantile
	ClipUpper    float64 // upper capping quantile
}

// DefaultBuilder returns a builder with a 7-day window, 2-hour gap fill and
// 1st/99th percentile capping.
func DefaultBuilder() Builder {
	return Builder{
		HistoryDays:  7,
		GapFillLimit: 2,
		ClipLower:    0.01,
		ClipUpper:    0.99,
	}
}

// Stats describes what Build did.
type Stats struct {
	Readings int
	Buckets  int // hourly buckets between the first and last reading
	Filled   int
	Clipped  int
	Nulls    int // null slots in the final window
	Lower    float64
	Upper    float64
}

// Build resamples, gap-fills, caps and reindexes readings into a Series of
// 24*HistoryDays+1 hourly slots ending at the forecast origin.
func (b Builder) Build(readings []analytics.Reading) (*Series, Stats, error) {
	var stats Stats

	valid := make([]analytics.Reading, 0, len(readings))
	for _, r := range readings {
		if r.Time.IsZero() || analytics.IsNull(r.Value) {
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return nil, stats, ErrNoData
	}
	if b.HistoryDays < 1 {
		return nil, stats, fmt.Errorf("history_days must be positive, got %d", b.HistoryDays)
	}
	stats.Readings = len(valid)

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Time.Before(valid[j].Time) })

	first, values := resample(valid)
	stats.Buckets = len(values)

	values, stats.Filled = analytics.ForwardFill(values, b.GapFillLimit)
	values, stats.Lower, stats.Upper, stats.Clipped = clip(values, b.ClipLower, b.ClipUpper)

	last := first.Add(time.Duration(len(values)-1) * time.Hour)
	start := last.Add(-time.Duration(b.HistoryDays) * 24 * time.Hour).Truncate(time.Hour)
	series := reindex(first, values, start, last)

	for _, v := range series.KWh {
		if analytics.IsNull(v) {
			stats.Nulls++
		}
	}

	return series, stats, nil
}

// resample sums sorted readings into hour buckets from the first reading's
// hour to the last one's. Empty buckets are null.
func resample(sorted []analytics.Reading) (time.Time, []float64) {
	first := sorted[0].Time.Truncate(time.Hour)
	last := sorted[len(sorted)-1].Time.Truncate(time.Hour)
	n := int(last.Sub(first)/time.Hour) + 1

	values := make([]float64, n)
	seen := make([]bool, n)
	for _, r := range sorted {
		i := int(r.Time.Truncate(time.Hour).Sub(first) / time.Hour)
		values[i] += r.Value
		seen[i] = true
	}
	for i := range values {
		if !seen[i] {
			values[i] = analytics.Null()
		}
	}
	return first, values
}

// clip caps non-null values into the [lowerQ, upperQ] quantile band.
func clip(values []float64, lowerQ, upperQ float64) ([]float64, float64, float64, int) {
	lower, ok := analytics.Quantile(values, lowerQ)
	if !ok {
		return append([]float64(nil), values...), 0, 0, 0
	}
	upper, _ := analytics.Quantile(values, upperQ)

	out := make([]float64, len(values))
	clipped := 0
	for i, v := range values {
		if analytics.IsNull(v) {
			out[i] = v
			continue
		}
		c := math.Min(math.Max(v, lower), upper)
		if c != v {
			clipped++
		}
		out[i] = c
	}
	return out, lower, upper, clipped
}

// reindex maps values (starting at first) onto the hourly timeline
// [start, end], inserting null for slots outside the data.
func reindex(first time.Time, values []float64, start, end time.Time) *Series {
	n := int(end.Sub(start)/time.Hour) + 1
	s := &Series{
		Times: make([]time.Time, n),
		KWh:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		t := start.Add(time.Duration(i) * time.Hour)
		s.Times[i] = t
		src := int(t.Sub(first) / time.Hour)
		if t.Before(first) || src >= len(values) {
			s.KWh[i] = analytics.Null()
			continue
		}
		s.KWh[i] = values[src]
	}
	return s
}
