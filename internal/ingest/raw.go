package ingest

import (
	"fmt"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
)

// RawReading is a reading submitted over the API, timestamp still unparsed
type RawReading struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"kwh"`
}

// ParseRawReadings converts raw readings using the wall clock of loc.
// Unparseable timestamps are skipped and counted.
func ParseRawReadings(raw []RawReading, loc *time.Location) ([]analytics.Reading, int, error) {
	readings := make([]analytics.Reading, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		ts, err := ParseTimestamp(r.Timestamp, loc)
		if err != nil || analytics.IsNull(r.Value) {
			skipped++
			continue
		}
		readings = append(readings, analytics.Reading{Time: ts, Value: r.Value})
	}

	if len(readings) == 0 {
		return nil, skipped, fmt.Errorf("%d readings skipped: %w", skipped, ErrNoReadings)
	}
	return readings, skipped, nil
}
