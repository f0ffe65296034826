// Package weather fetches hourly weather from an external provider and joins
// it onto an hourly demand series.
package weather

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Variables requested from the provider.
const (
	Temperature      = "temperature_2m"
	RelativeHumidity = "relative_humidity_2m"
)

// ErrUnavailable marks any failure to obtain weather for a run.
var ErrUnavailable = errors.New("weather unavailable")

// Request describes an hourly weather query over a closed date range.
type Request struct {
	Latitude  float64
	Longitude float64
	StartDate time.Time // only the date is used
	EndDate   time.Time
	Variables []string
	Timezone  string
}

// Hourly is a provider response: wall-clock times in the requested timezone
// (labelled UTC) and one parallel column per variable. Missing values are NaN.
type Hourly struct {
	Times  []time.Time
	Values map[string][]float64
}

// Provider fetches hourly weather.
type Provider interface {
	Fetch(ctx context.Context, req Request) (*Hourly, error)
}

// ProviderError describes a failed weather fetch.
type ProviderError struct {
	Op  string // request, status, decode, contract
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("weather provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func providerError(op string, format string, args ...interface{}) *ProviderError {
	return &ProviderError{Op: op, Err: fmt.Errorf(format, args...)}
}
