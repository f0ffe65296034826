// Package report writes forecast run artifacts: forecast and metrics CSVs,
// the JSON run summary and the actuals-vs-forecast plot.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/forecast"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
)

// Artifact file names, relative to the output directory
const (
	ForecastFile = "forecast_T_plus_24.csv"
	NaiveFile    = "forecast_seasonal_naive.csv"
	MetricsFile  = "metrics.csv"
	SummaryFile  = "run_summary.json"
	PlotFile     = "plots/actuals_and_forecast.png"
)

// TimestampLayout is how timestamps appear in the CSV artifacts
const TimestampLayout = "2006-01-02 15:04:05"

// ModelMetrics is one scored model, a row of metrics.csv
type ModelMetrics struct {
	Model string `json:"model"`
	forecast.Metrics
}

// Options controls which artifacts Write produces
type Options struct {
	Dir             string
	MakePlots       bool
	SaveReport      bool
	PlotHistoryDays int
}

// Input is everything a run hands to the report writer
type Input struct {
	Series  *hourly.Series
	Ridge   []forecast.ForecastPoint
	Naive   []forecast.ForecastPoint
	Metrics []ModelMetrics
	Summary interface{} // marshalled to run_summary.json
}

// Files lists the artifacts written by a run
type Files struct {
	Forecast string `json:"forecast"`
	Naive    string `json:"naive"`
	Metrics  string `json:"metrics"`
	Summary  string `json:"summary,omitempty"`
	Plot     string `json:"plot,omitempty"`
}

// Writer writes run artifacts into one output directory
type Writer struct {
	opts Options
}

// NewWriter creates a Writer
func NewWriter(opts Options) *Writer {
	if opts.PlotHistoryDays <= 0 {
		opts.PlotHistoryDays = 3
	}
	return &Writer{opts: opts}
}

// Write produces the forecast and metrics CSVs, then the summary and plot
// when enabled.
func (w *Writer) Write(in Input) (Files, error) {
	var files Files
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return files, fmt.Errorf("failed to create output dir: %w", err)
	}

	files.Forecast = filepath.Join(w.opts.Dir, ForecastFile)
	if err := WriteForecastCSV(files.Forecast, in.Ridge); err != nil {
		return files, err
	}
	files.Naive = filepath.Join(w.opts.Dir, NaiveFile)
	if err := WriteForecastCSV(files.Naive, in.Naive); err != nil {
		return files, err
	}
	files.Metrics = filepath.Join(w.opts.Dir, MetricsFile)
	if err := WriteMetricsCSV(files.Metrics, in.Metrics); err != nil {
		return files, err
	}

	if w.opts.SaveReport && in.Summary != nil {
		files.Summary = filepath.Join(w.opts.Dir, SummaryFile)
		if err := WriteJSON(files.Summary, in.Summary); err != nil {
			return files, err
		}
	}

	if w.opts.MakePlots && in.Series != nil {
		files.Plot = filepath.Join(w.opts.Dir, filepath.FromSlash(PlotFile))
		actual := in.Series.Tail(w.opts.PlotHistoryDays * 24)
		if err := PlotForecast(files.Plot, actual, in.Ridge, in.Naive); err != nil {
			return files, err
		}
	}

	return files, nil
}

// WriteForecastCSV writes a timestamp,yhat table
func WriteForecastCSV(path string, points []forecast.ForecastPoint) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"timestamp", "yhat"})
	for _, p := range points {
		rows = append(rows, []string{formatTime(p.Time), formatFloat(p.Value)})
	}
	return writeCSV(path, rows)
}

// WriteMetricsCSV writes one model,MAE,WAPE,sMAPE row per model, rounded to
// two decimals
func WriteMetricsCSV(path string, metrics []ModelMetrics) error {
	rows := make([][]string, 0, len(metrics)+1)
	rows = append(rows, []string{"model", "MAE", "WAPE", "sMAPE"})
	for _, m := range metrics {
		rows = append(rows, []string{
			m.Model,
			formatFloat(forecast.Round2(m.MAE)),
			formatFloat(forecast.Round2(m.WAPE)),
			formatFloat(forecast.Round2(m.SMAPE)),
		})
	}
	return writeCSV(path, rows)
}

// WriteJSON writes v as indented JSON
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeCSV(path string, rows [][]string) error {
	f, err := create(path)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func writeFile(path string, data []byte) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

func formatTime(t time.Time) string {
	return t.Format(TimestampLayout)
}

// formatFloat writes nulls as empty cells
func formatFloat(v float64) string {
	if analytics.IsNull(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
