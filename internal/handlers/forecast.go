package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/forecast"
	"github.com/gridcast/gridcast/internal/models"
	"github.com/gridcast/gridcast/internal/report"
	"github.com/gridcast/gridcast/internal/services"
)

// RunForecast executes the pipeline synchronously
// POST /v1/forecast/runs
func (h *Handler) RunForecast(c *fiber.Ctx) error {
	var body models.ForecastRunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "INVALID_JSON",
					Message: "Failed to parse JSON body",
					Details: map[string]interface{}{"error": err.Error()},
				},
			})
		}
	}

	result, err := h.forecastService.Execute(c.UserContext(), services.ForecastRequest{
		City:        body.City,
		HistoryDays: body.HistoryDays,
		WithWeather: body.WithWeather,
		Backtest:    body.Backtest,
		MakePlots:   body.MakePlots,
		SaveReport:  body.SaveReport,
		RawReadings: body.Readings,
	})
	if err != nil {
		return err
	}
	h.logger.Debug("Forecast run served", "run_id", result.RunID, "warnings", len(result.Warnings))

	return c.Status(fiber.StatusCreated).JSON(toRunResponse(result))
}

// LatestForecast returns the last successful run
// GET /v1/forecast/latest
func (h *Handler) LatestForecast(c *fiber.Ctx) error {
	result := h.forecastService.Latest()
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NO_RUNS",
				Message: "No forecast run has completed yet",
				Path:    c.Path(),
			},
		})
	}
	return c.JSON(toRunResponse(result))
}

func toRunResponse(r *services.RunResult) models.ForecastRunResponse {
	resp := models.ForecastRunResponse{
		RunID:            r.RunID,
		City:             r.City,
		ForecastOrigin:   r.Origin.Format(report.TimestampLayout),
		WeatherAvailable: r.WeatherAvailable,
		Warnings:         r.Warnings,
		Forecast:         pointViews(r.Ridge),
		SeasonalNaive:    pointViews(r.Naive),
		DurationMs:       r.DurationMs,
	}

	if r.Ridge != nil && r.Ridge.Ridge != nil {
		model := r.Ridge.Ridge
		resp.TrainRows = model.TrainRows
		resp.Coefficients = make(map[string]float64, len(model.Columns)+1)
		for i, col := range model.Columns {
			resp.Coefficients[col] = model.Coefficients[i]
		}
		resp.Coefficients["intercept"] = model.Intercept
	}

	resp.Metrics = make([]models.MetricView, len(r.Metrics))
	for i, m := range r.Metrics {
		resp.Metrics[i] = models.MetricView{
			Model:  m.Model,
			MAE:    forecast.Round2(m.MAE),
			WAPE:   forecast.Round2(m.WAPE),
			SMAPE:  forecast.Round2(m.SMAPE),
			Points: m.Points,
		}
	}
	return resp
}

func pointViews(res *forecast.ForecastResult) []models.ForecastPointView {
	if res == nil {
		return nil
	}
	out := make([]models.ForecastPointView, len(res.Predictions))
	for i, p := range res.Predictions {
		out[i] = models.ForecastPointView{Timestamp: p.Time.Format(report.TimestampLayout)}
		if !analytics.IsNull(p.Value) {
			v := p.Value
			out[i].Yhat = &v
		}
	}
	return out
}
