// Package analytics provides the shared value types and null handling used by
// the hourly, features and forecast packages.
package analytics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Reading is a single raw meter observation. Value is the energy consumed
// in the interval ending at Time, in kWh.
type Reading struct {
	Time  time.Time
	Value float64
}

// Null returns the sentinel used for missing values in every float series.
func Null() float64 {
	return math.NaN()
}

// IsNull reports whether v is missing.
func IsNull(v float64) bool {
	return math.IsNaN(v)
}

// NonNull returns the non-null values of values, in order.
func NonNull(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the mean of the non-null values and whether there was any.
func Mean(values []float64) (float64, bool) {
	valid := NonNull(values)
	if len(valid) == 0 {
		return 0, false
	}
	return stat.Mean(valid, nil), true
}

// Quantile returns the q-quantile (q in [0,1]) of the non-null values using
// linear interpolation between closest ranks (index q*(n-1)).
func Quantile(values []float64, q float64) (float64, bool) {
	sorted := NonNull(values)
	if len(sorted) == 0 {
		return 0, false
	}
	sort.Float64s(sorted)
	return percentile(sorted, q*100), true
}

func percentile(sortedData []float64, p float64) float64 {
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}

	weight := index - float64(lower)
	return sortedData[lower]*(1-weight) + sortedData[upper]*weight
}

// HourOfDayMeans returns the mean of non-null values for each hour of day.
// ok[h] is false when hour h has no observation.
func HourOfDayMeans(times []time.Time, values []float64) (means [24]float64, ok [24]bool) {
	var sums [24]float64
	var counts [24]int
	for i, t := range times {
		if IsNull(values[i]) {
			continue
		}
		h := t.Hour()
		sums[h] += values[i]
		counts[h]++
	}
	for h := 0; h < 24; h++ {
		if counts[h] > 0 {
			means[h] = sums[h] / float64(counts[h])
			ok[h] = true
		}
	}
	return means, ok
}

// ForwardFill carries the last known value across at most limit consecutive
// nulls and returns the filled copy with the number of slots filled.
// Leading nulls stay null.
func ForwardFill(values []float64, limit int) ([]float64, int) {
	out := append([]float64(nil), values...)
	filled := 0
	run := 0
	last := Null()

	for i, v := range out {
		if !IsNull(v) {
			last = v
			run = 0
			continue
		}
		run++
		if run <= limit && !IsNull(last) {
			out[i] = last
			filled++
		}
	}
	return out, filled
}

// BackwardFill is ForwardFill run from the end of the slice.
func BackwardFill(values []float64, limit int) ([]float64, int) {
	reversed := make([]float64, len(values))
	for i, v := range values {
		reversed[len(values)-1-i] = v
	}
	filled, n := ForwardFill(reversed, limit)
	out := make([]float64, len(filled))
	for i, v := range filled {
		out[len(filled)-1-i] = v
	}
	return out, n
}
