// Package ingest reads raw smart-meter exports into analytics readings.
package ingest

import (
	"errors"
	"io"

	"github.com/gridcast/gridcast/internal/analytics"
)

// ErrNoReadings is returned when a source yields no usable reading.
var ErrNoReadings = errors.New("no usable readings")

// Parser reads meter data from a source and returns readings.
type Parser interface {
	Parse(r io.Reader) ([]analytics.Reading, error)
}
