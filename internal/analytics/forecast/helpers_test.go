package forecast

import (
	"math"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
)

// 2020-03-02 is a Monday.
var testBaseTime = time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)

func sinusoid(t time.Time) float64 {
	return 10 + 5*math.Sin(2*math.Pi*float64(t.Hour())/24)
}

func sinusoidReadings(hours int) []analytics.Reading {
	readings := make([]analytics.Reading, hours)
	for i := range readings {
		t := testBaseTime.Add(time.Duration(i) * time.Hour)
		readings[i] = analytics.Reading{Time: t, Value: sinusoid(t)}
	}
	return readings
}

func seriesOf(values []float64) *hourly.Series {
	s := &hourly.Series{Times: make([]time.Time, len(values)), KWh: append([]float64(nil), values...)}
	for i := range values {
		s.Times[i] = testBaseTime.Add(time.Duration(i) * time.Hour)
	}
	return s
}
