// Package services runs the forecast pipeline on behalf of the CLI and the
// HTTP handlers.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrData marks input that cannot produce a usable hourly series.
	ErrData = errors.New("data error")
	// ErrInvalidRequest marks a request the pipeline refuses to run.
	ErrInvalidRequest = errors.New("invalid request")
)

// Pipeline stages reported on failures
const (
	StageRequest  = "request"
	StageIngest   = "ingest"
	StageHourly   = "hourly"
	StageWeather  = "weather"
	StageNaive    = "seasonal_naive"
	StageRidge    = "ridge"
	StageBacktest = "backtest"
	StageReport   = "report"
	StagePublish  = "publish"
)

// Error codes
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeDataError      = "DATA_ERROR"
	CodeModelError     = "MODEL_ERROR"
	CodeReportFailed   = "REPORT_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Stage   string                 `json:"stage,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// stageError wraps err as the failure of stage
func stageError(stage, code string, err error) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: err.Error(),
		Stage:   stage,
		Err:     err,
	}
}

// dataError wraps err so that errors.Is(err, ErrData) holds
func dataError(stage string, err error) *ServiceError {
	if !errors.Is(err, ErrData) {
		err = fmt.Errorf("%w: %w", ErrData, err)
	}
	return stageError(stage, CodeDataError, err)
}
