// Package features derives the regression design matrices from an hourly
// series: one for the observed history and one for the 24 horizon hours,
// always with identical columns.
package features

import (
	"math"
	"strconv"
	"time"
)

// Column names.
const (
	HourSin  = "hour_sin"
	HourCos  = "hour_cos"
	Temp     = "temp"
	TempLag1 = "temp_lag1"
	RH       = "rh"
	RHLag1   = "rh_lag1"
)

// Options configures the schema.
type Options struct {
	LagOffsets         []int
	RollingWindowHours int
}

// DefaultOptions returns lags {1,2,3,24} and a 24-hour rolling mean.
func DefaultOptions() Options {
	return Options{
		LagOffsets:         []int{1, 2, 3, 24},
		RollingWindowHours: 24,
	}
}

// LagColumn returns the column name of the k-hour lag.
func LagColumn(k int) string {
	return "lag_" + strconv.Itoa(k)
}

// RollingColumn returns the column name of the rolling mean.
func (o Options) RollingColumn() string {
	return "roll" + strconv.Itoa(o.RollingWindowHours)
}

// DowColumn returns the dummy column for day d (Monday=0 .. Sunday=6).
func DowColumn(d int) string {
	return "dow_" + strconv.Itoa(d)
}

// Schema is the ordered list of feature columns.
type Schema []string

// NewSchema returns
//
//	hour_sin, hour_cos, lag_k..., rollN, [temp, temp_lag1, rh, rh_lag1], dow_1..dow_6
//
// Monday is the dropped day-of-week reference.
func NewSchema(opts Options, weather bool) Schema {
	s := Schema{HourSin, HourCos}
	for _, k := range opts.LagOffsets {
		s = append(s, LagColumn(k))
	}
	s = append(s, opts.RollingColumn())
	if weather {
		s = append(s, Temp, TempLag1, RH, RHLag1)
	}
	for d := 1; d <= 6; d++ {
		s = append(s, DowColumn(d))
	}
	return s
}

// Index returns the position of name in s.
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Equal reports whether both schemas list the same columns in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// hourEncoding returns the cyclical hour-of-day encoding of t.
func hourEncoding(t time.Time) (float64, float64) {
	angle := 2 * math.Pi * float64(t.Hour()) / 24
	return math.Sin(angle), math.Cos(angle)
}

// weekday returns the day of week with Monday=0.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
