package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/features"
	"github.com/gridcast/gridcast/internal/analytics/forecast"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/ingest"
	"github.com/gridcast/gridcast/internal/logging"
	"github.com/gridcast/gridcast/internal/metrics"
	"github.com/gridcast/gridcast/internal/queue"
	"github.com/gridcast/gridcast/internal/report"
	"github.com/gridcast/gridcast/internal/weather"
)

const (
	naiveModel    = "seasonal_naive"
	ridgeModel    = "ridge_regression"
	backtestTag   = "_backtest"
	backtestHours = hourly.Horizon
)

// ForecastService handles forecasting business logic
type ForecastService struct {
	cfg       *config.Config
	logger    *logging.Logger
	provider  weather.Provider
	publisher queue.Publisher
	recorder  *metrics.Recorder

	// runs share the output directory, so only one executes at a time
	runMu sync.Mutex

	mu     sync.RWMutex
	latest *RunResult
}

// NewForecastService creates a new ForecastService. provider and publisher
// may be nil, which disables weather and publishing.
func NewForecastService(
	cfg *config.Config,
	logger *logging.Logger,
	provider weather.Provider,
	publisher queue.Publisher,
) *ForecastService {
	return &ForecastService{
		cfg:       cfg,
		logger:    logger,
		provider:  provider,
		publisher: publisher,
		recorder:  metrics.NewRecorder(),
	}
}

// Metrics returns the recorder fed by Execute
func (s *ForecastService) Metrics() *metrics.Recorder {
	return s.recorder
}

// ForecastRequest overrides the configured pipeline settings for one run.
// Zero values and nil pointers keep the configuration.
type ForecastRequest struct {
	InputPath   string
	City        string
	HistoryDays int
	OutputDir   string
	WithWeather *bool
	Backtest    *bool
	MakePlots   *bool
	SaveReport  *bool

	// Readings, or else RawReadings, replace the CSV input when set
	Readings    []analytics.Reading
	RawReadings []ingest.RawReading
}

// RunResult is the outcome of a successful run
type RunResult struct {
	RunID            string                   `json:"run_id"`
	City             string                   `json:"city"`
	Origin           time.Time                `json:"forecast_origin"`
	StartedAt        time.Time                `json:"started_at"`
	DurationMs       int64                    `json:"duration_ms"`
	Readings         int                      `json:"readings"`
	Slots            int                      `json:"slots"`
	NullSlots        int                      `json:"null_slots"`
	WeatherAvailable bool                     `json:"weather_available"`
	Warnings         []string                 `json:"warnings,omitempty"`
	Naive            *forecast.ForecastResult `json:"seasonal_naive"`
	Ridge            *forecast.ForecastResult `json:"ridge_regression"`
	Metrics          []report.ModelMetrics    `json:"metrics"`
	Artifacts        *report.Files            `json:"artifacts,omitempty"`

	Series *hourly.Series `json:"-"`
}

// Metric returns the metrics recorded for model
func (r *RunResult) Metric(model string) (forecast.Metrics, bool) {
	for _, m := range r.Metrics {
		if m.Model == model {
			return m.Metrics, true
		}
	}
	return forecast.Metrics{}, false
}

// runSettings is the configuration merged with a request
type runSettings struct {
	inputPath   string
	cityName    string
	city        config.CityConfig
	historyDays int
	outputDir   string
	withWeather bool
	backtest    bool
	makePlots   bool
	saveReport  bool
}

// Latest returns the last successful run, or nil
func (s *ForecastService) Latest() *RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Execute runs ingest, hourly aggregation, optional weather enrichment,
// both forecasters, scoring, reporting and publishing.
func (s *ForecastService) Execute(ctx context.Context, req ForecastRequest) (*RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	startExec := time.Now()
	result, err := s.execute(ctx, req, startExec)
	s.record(result, err, time.Since(startExec))
	return result, err
}

func (s *ForecastService) record(result *RunResult, err error, d time.Duration) {
	if err != nil {
		stage := ""
		var serr *ServiceError
		if errors.As(err, &serr) {
			stage = serr.Stage
		}
		s.recorder.RecordRun(metrics.StatusFailed, stage, d)
		return
	}

	s.recorder.RecordRun(metrics.StatusSuccess, "", d)
	s.recorder.RecordReadings(result.Readings)
	for _, w := range result.Warnings {
		stage, _, _ := strings.Cut(w, ":")
		s.recorder.RecordWarning(stage)
	}
	for _, m := range result.Metrics {
		s.recorder.RecordModel(m.Model, m.MAE, m.WAPE, m.SMAPE)
	}
}

func (s *ForecastService) execute(ctx context.Context, req ForecastRequest, startExec time.Time) (*RunResult, error) {
	settings, err := s.settings(req)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		City:      settings.cityName,
		StartedAt: startExec.UTC(),
	}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := s.logger.With("run_id", result.RunID, "city", settings.cityName)

	readings, err := s.ingest(req, settings, logger)
	if err != nil {
		return nil, err
	}
	result.Readings = len(readings)

	builder := hourly.Builder{
		HistoryDays:  settings.historyDays,
		GapFillLimit: s.cfg.Series.GapFillLimit,
		ClipLower:    s.cfg.Series.ClipLower,
		ClipUpper:    s.cfg.Series.ClipUpper,
	}
	series, stats, err := builder.Build(readings)
	if err != nil {
		return nil, dataError(StageHourly, err)
	}
	logger.Info("Hourly series built",
		"buckets", stats.Buckets,
		"filled", stats.Filled,
		"clipped", stats.Clipped,
		"null_slots", stats.Nulls,
		"origin", series.Origin().Format(report.TimestampLayout))

	if settings.withWeather {
		series = s.enrich(ctx, series, settings, result, logger)
	}
	result.Series = series
	result.Origin = series.Origin()
	result.Slots = series.Len()
	result.NullSlots = stats.Nulls

	fc := s.forecastConfig()

	result.Naive, err = runForecaster(naiveModel, series, fc)
	if err != nil {
		return nil, stageError(StageNaive, CodeModelError, err)
	}
	result.Ridge, err = runForecaster(ridgeModel, series, fc)
	if err != nil {
		if errors.Is(err, forecast.ErrEmptySeries) {
			return nil, dataError(StageRidge, err)
		}
		return nil, stageError(StageRidge, CodeModelError, err)
	}
	logger.Info("Forecasts produced",
		"train_rows", result.Ridge.ModelInfo.DataPoints,
		"features", len(result.Ridge.Ridge.Columns))

	actual := series.KWh[max(0, series.Len()-hourly.Horizon):]
	result.Metrics = []report.ModelMetrics{
		{Model: naiveModel, Metrics: forecast.Evaluate(actual, result.Naive.Values())},
		{Model: ridgeModel, Metrics: forecast.Evaluate(actual, result.Ridge.Values())},
	}

	if settings.backtest {
		result.Metrics = append(result.Metrics, s.backtest(series, fc, result, logger)...)
	}
	for _, m := range result.Metrics {
		logger.Info("Metrics",
			"model", m.Model,
			"mae", forecast.Round2(m.MAE),
			"wape", forecast.Round2(m.WAPE),
			"smape", forecast.Round2(m.SMAPE))
	}

	result.DurationMs = time.Since(startExec).Milliseconds()

	writer := report.NewWriter(report.Options{
		Dir:             settings.outputDir,
		MakePlots:       settings.makePlots,
		SaveReport:      settings.saveReport,
		PlotHistoryDays: s.cfg.Output.PlotHistoryDays,
	})
	files, err := writer.Write(report.Input{
		Series:  series,
		Ridge:   result.Ridge.Predictions,
		Naive:   result.Naive.Predictions,
		Metrics: result.Metrics,
		Summary: result,
	})
	if err != nil {
		return nil, stageError(StageReport, CodeReportFailed, err)
	}
	result.Artifacts = &files

	s.publish(ctx, result, logger)

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	logger.Info("Forecast run completed",
		"forecast_origin", result.Origin.Format(report.TimestampLayout),
		"weather", result.WeatherAvailable,
		"warnings", len(result.Warnings),
		"latency_ms", time.Since(startExec).Milliseconds())

	return result, nil
}

func (s *ForecastService) settings(req ForecastRequest) (runSettings, error) {
	out := runSettings{
		inputPath:   s.cfg.Input.Path,
		cityName:    strings.ToLower(s.cfg.Pipeline.City),
		historyDays: s.cfg.Pipeline.HistoryDays,
		outputDir:   s.cfg.OutputPath(),
		withWeather: s.cfg.Weather.Enabled,
		backtest:    s.cfg.Evaluation.Backtest,
		makePlots:   s.cfg.Output.MakePlots,
		saveReport:  s.cfg.Output.SaveReport,
	}

	if req.InputPath != "" {
		out.inputPath = req.InputPath
	}
	if req.City != "" {
		out.cityName = strings.ToLower(req.City)
	}
	if req.HistoryDays != 0 {
		out.historyDays = req.HistoryDays
	}
	if req.OutputDir != "" {
		out.outputDir = req.OutputDir
	}
	override(&out.withWeather, req.WithWeather)
	override(&out.backtest, req.Backtest)
	override(&out.makePlots, req.MakePlots)
	override(&out.saveReport, req.SaveReport)

	pipeline := config.PipelineConfig{City: out.cityName, HistoryDays: out.historyDays}
	if err := pipeline.Validate(); err != nil {
		return out, invalidRequest("history_days", err.Error())
	}
	city, ok := s.cfg.Cities[out.cityName]
	if !ok {
		return out, invalidRequest("city", fmt.Sprintf("unknown city %q", out.cityName))
	}
	out.city = city

	if out.withWeather && s.provider == nil {
		out.withWeather = false
		s.logger.Warn("Weather requested but no provider configured")
	}
	return out, nil
}

func override(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func invalidRequest(field, message string) *ServiceError {
	err := NewServiceErrorWithDetails(CodeInvalidRequest, message, map[string]interface{}{"field": field})
	err.Stage = StageRequest
	err.Err = fmt.Errorf("%w: %s", ErrInvalidRequest, message)
	return err
}

func (s *ForecastService) ingest(req ForecastRequest, settings runSettings, logger *logging.Logger) ([]analytics.Reading, error) {
	if len(req.Readings) > 0 {
		logger.Info("Readings supplied with request", "readings", len(req.Readings))
		return req.Readings, nil
	}
	if len(req.RawReadings) > 0 {
		readings, skipped, err := ingest.ParseRawReadings(req.RawReadings, settings.city.Location())
		if err != nil {
			return nil, dataError(StageIngest, err)
		}
		logger.Info("Readings supplied with request",
			"readings", len(readings),
			"skipped", skipped)
		return readings, nil
	}

	parser := ingest.NewMeterCSVParser(s.cfg.Input.TimestampColumn, s.cfg.Input.ValueColumn, settings.city.Location())
	readings, err := ingest.ReadFile(settings.inputPath, parser)
	if err != nil {
		return nil, dataError(StageIngest, err)
	}
	logger.Info("Readings loaded",
		"path", settings.inputPath,
		"readings", len(readings),
		"skipped_rows", parser.Skipped())
	return readings, nil
}

func (s *ForecastService) enrich(ctx context.Context, series *hourly.Series, settings runSettings, result *RunResult, logger *logging.Logger) *hourly.Series {
	enricher := weather.NewEnricher(s.provider, weather.Location{
		Latitude:  settings.city.Latitude,
		Longitude: settings.city.Longitude,
		Timezone:  settings.city.Timezone,
	}, s.cfg.Weather.GapFillLimit, logger)

	fetch := enricher.Enrich(ctx, series)
	result.WeatherAvailable = fetch.Available
	if !fetch.Available {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", StageWeather, fetch.Reason))
	}
	return fetch.Series
}

func (s *ForecastService) forecastConfig() forecast.ForecastConfig {
	return forecast.ForecastConfig{
		Alpha: s.cfg.Ridge.Alpha,
		Features: features.Options{
			LagOffsets:         s.cfg.Features.LagOffsets,
			RollingWindowHours: s.cfg.Features.RollingWindowHours,
		},
	}
}

func runForecaster(name string, series *hourly.Series, fc forecast.ForecastConfig) (*forecast.ForecastResult, error) {
	f, err := forecast.GetForecaster(name)
	if err != nil {
		return nil, err
	}
	return f.Forecast(series, fc)
}

// backtest re-runs both models with the last day held out and scores them
// against it. Failures become warnings.
func (s *ForecastService) backtest(series *hourly.Series, fc forecast.ForecastConfig, result *RunResult, logger *logging.Logger) []report.ModelMetrics {
	if series.Len() <= backtestHours {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: series too short", StageBacktest))
		return nil
	}

	truncated, heldOut := series.WithoutLast(backtestHours)

	var out []report.ModelMetrics
	for _, name := range []string{naiveModel, ridgeModel} {
		res, err := runForecaster(name, truncated, fc)
		if err != nil {
			logger.Warn("Backtest failed", "model", name, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s: %v", StageBacktest, name, err))
			continue
		}
		out = append(out, report.ModelMetrics{
			Model:   name + backtestTag,
			Metrics: forecast.Evaluate(heldOut, res.Values()),
		})
	}
	return out
}

// publish announces the run. Failures are logged and recorded as warnings.
func (s *ForecastService) publish(ctx context.Context, result *RunResult, logger *logging.Logger) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(result)
	if err == nil {
		err = s.publisher.Publish(ctx, s.cfg.Queue.Subject, data)
	}
	if err != nil {
		logger.Warn("Failed to publish run summary", "subject", s.cfg.Queue.Subject, "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", StagePublish, err))
		return
	}
	logger.Debug("Run summary published", "subject", s.cfg.Queue.Subject, "bytes", len(data))
}
