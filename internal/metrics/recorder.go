// Package metrics exposes pipeline run metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Recorder holds the collectors for forecast runs on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	runDuration *prometheus.HistogramVec
	runTotal    *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	modelError  *prometheus.GaugeVec
	readings    prometheus.Gauge
}

// NewRecorder creates a Recorder with Go and process collectors registered.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridcast_run_duration_seconds",
			Help:    "Duration of forecast runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		runTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridcast_runs_total",
			Help: "Forecast runs by status and failing stage.",
		}, []string{"status", "stage"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridcast_run_warnings_total",
			Help: "Non-fatal failures recorded during runs.",
		}, []string{"stage"}),
		modelError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gridcast_model_error",
			Help: "Error of the latest forecast against the last day of actuals.",
		}, []string{"model", "metric"}),
		readings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridcast_last_run_readings",
			Help: "Raw readings consumed by the latest successful run.",
		}),
	}

	registry.MustRegister(r.runDuration, r.runTotal, r.warnings, r.modelError, r.readings)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRun counts a finished run. stage is empty on success.
func (r *Recorder) RecordRun(status, stage string, d time.Duration) {
	r.runDuration.WithLabelValues(status).Observe(d.Seconds())
	r.runTotal.WithLabelValues(status, stage).Inc()
}

// RecordWarning counts a non-fatal failure in stage.
func (r *Recorder) RecordWarning(stage string) {
	r.warnings.WithLabelValues(stage).Inc()
}

// RecordModel sets the latest error metrics of model.
func (r *Recorder) RecordModel(model string, mae, wape, smape float64) {
	r.modelError.WithLabelValues(model, "mae").Set(mae)
	r.modelError.WithLabelValues(model, "wape").Set(wape)
	r.modelError.WithLabelValues(model, "smape").Set(smape)
}

// RecordReadings sets the reading count of the latest run.
func (r *Recorder) RecordReadings(n int) {
	r.readings.Set(float64(n))
}
