package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ForecastPointView is one forecast hour
type ForecastPointView struct {
	Timestamp string   `json:"timestamp"`
	Yhat      *float64 `json:"yhat"` // nil when the prediction is null
}

// MetricView holds one model's scores rounded to two decimals
type MetricView struct {
	Model  string  `json:"model"`
	MAE    float64 `json:"MAE"`
	WAPE   float64 `json:"WAPE"`
	SMAPE  float64 `json:"sMAPE"`
	Points int     `json:"points"`
}

// ForecastRunResponse represents a completed forecast run
type ForecastRunResponse struct {
	RunID            string              `json:"run_id"`
	City             string              `json:"city"`
	ForecastOrigin   string              `json:"forecast_origin"`
	WeatherAvailable bool                `json:"weather_available"`
	TrainRows        int                 `json:"train_rows"`
	Warnings         []string            `json:"warnings,omitempty"`
	Forecast         []ForecastPointView `json:"forecast"`
	SeasonalNaive    []ForecastPointView `json:"seasonal_naive"`
	Metrics          []MetricView        `json:"metrics"`
	Coefficients     map[string]float64  `json:"coefficients,omitempty"`
	DurationMs       int64               `json:"duration_ms"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
