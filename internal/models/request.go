package models

import "github.com/gridcast/gridcast/internal/ingest"

// ForecastRunRequest represents a forecast run request. Omitted fields keep
// the server configuration.
type ForecastRunRequest struct {
	City        string              `json:"city,omitempty"`
	HistoryDays int                 `json:"history_days,omitempty"`
	WithWeather *bool               `json:"with_weather,omitempty"`
	Backtest    *bool               `json:"backtest,omitempty"`
	MakePlots   *bool               `json:"make_plots,omitempty"`
	SaveReport  *bool               `json:"save_report,omitempty"`
	Readings    []ingest.RawReading `json:"readings,omitempty"`
}
