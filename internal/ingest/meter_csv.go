package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
)

// timestampLayouts are tried in order. Layouts without a zone are read as
// wall clock in the parser's location.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// MeterCSVParser parses smart-meter CSV exports.
//
// Expected format (extra columns are ignored):
//
//	x_Timestamp,t_kWh,z_Avg Voltage (Volt),z_Avg Current (Amp),y_Freq (Hz),meter
//	2020-03-01 00:03:00,0.012,239.1,0.21,50.0,BR02
//
// Timestamps carrying an offset are converted to Location and then treated
// as naive wall clock, like the zone-less ones. Rows whose timestamp or
// value cannot be parsed are skipped and counted.
type MeterCSVParser struct {
	TimestampColumn string
	ValueColumn     string
	Location        *time.Location

	skipped int
}

// NewMeterCSVParser creates a parser for the given columns and meter timezone.
func NewMeterCSVParser(timestampColumn, valueColumn string, loc *time.Location) *MeterCSVParser {
	if loc == nil {
		loc = time.UTC
	}
	return &MeterCSVParser{
		TimestampColumn: timestampColumn,
		ValueColumn:     valueColumn,
		Location:        loc,
	}
}

// Skipped returns the number of rows dropped by the last Parse call.
func (p *MeterCSVParser) Skipped() int {
	return p.skipped
}

func (p *MeterCSVParser) Parse(r io.Reader) ([]analytics.Reading, error) {
	p.skipped = 0

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: %w", ErrNoReadings)
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	tsIdx, valIdx, err := p.columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var readings []analytics.Reading
	lineNum := 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		if tsIdx >= len(record) || valIdx >= len(record) {
			p.skipped++
			continue
		}

		ts, err := p.parseTimestamp(record[tsIdx])
		if err != nil {
			p.skipped++
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[valIdx]), 64)
		if err != nil || analytics.IsNull(value) {
			p.skipped++
			continue
		}

		readings = append(readings, analytics.Reading{Time: ts, Value: value})
	}

	if len(readings) == 0 {
		return nil, fmt.Errorf("%d rows skipped: %w", p.skipped, ErrNoReadings)
	}

	return readings, nil
}

func (p *MeterCSVParser) columnIndexes(header []string) (int, int, error) {
	tsIdx, valIdx := -1, -1
	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		switch name {
		case p.TimestampColumn:
			tsIdx = i
		case p.ValueColumn:
			valIdx = i
		}
	}
	if tsIdx < 0 {
		return 0, 0, fmt.Errorf("missing timestamp column %q", p.TimestampColumn)
	}
	if valIdx < 0 {
		return 0, 0, fmt.Errorf("missing value column %q", p.ValueColumn)
	}
	return tsIdx, valIdx, nil
}

func (p *MeterCSVParser) parseTimestamp(raw string) (time.Time, error) {
	return ParseTimestamp(raw, p.Location)
}

// ParseTimestamp returns the wall clock of raw in loc, labelled UTC so
// hourly arithmetic never crosses a DST transition.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			continue
		}
		return WallClock(ts.In(loc)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// WallClock drops the zone of t, keeping its wall clock reading.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ReadFile parses the meter CSV at path.
func ReadFile(path string, parser Parser) ([]analytics.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return parser.Parse(f)
}
