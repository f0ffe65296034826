package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gridcast/gridcast/internal/analytics/forecast"
	"github.com/gridcast/gridcast/internal/config"
	"github.com/gridcast/gridcast/internal/logging"
	"github.com/gridcast/gridcast/internal/queue"
	"github.com/gridcast/gridcast/internal/services"
	"github.com/gridcast/gridcast/internal/weather"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	input := flag.String("input", "", "Smart-meter CSV (overrides input.path)")
	city := flag.String("city", "", "City key from the cities table")
	historyWindow := flag.String("history_window", "", "History window, e.g. days:7")
	withWeather := flag.String("with_weather", "", "Join Open-Meteo weather features (true/false)")
	makePlots := flag.String("make_plots", "", "Write the actuals and forecast PNG (true/false)")
	saveReport := flag.String("save_report", "", "Write run_summary.json (true/false)")
	backtest := flag.String("backtest", "", "Score both models on the last held-out day (true/false)")
	output := flag.String("output", "", "Output directory (overrides output.dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("gridcast forecast starting", "version", Version, "commit", GitCommit)

	historyDays, err := parseHistoryWindow(*historyWindow)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		logger.Warn("Result publishing disabled", "type", cfg.Queue.Type, "error", err)
	}
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	svc := services.NewForecastService(cfg, logger, weather.NewProvider(cfg.Weather, logger), publisher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := svc.Execute(ctx, services.ForecastRequest{
		InputPath:   *input,
		City:        *city,
		HistoryDays: historyDays,
		OutputDir:   *output,
		WithWeather: parseBoolFlag(*withWeather),
		Backtest:    parseBoolFlag(*backtest),
		MakePlots:   parseBoolFlag(*makePlots),
		SaveReport:  parseBoolFlag(*saveReport),
	})
	if err != nil {
		var svcErr *services.ServiceError
		if errors.As(err, &svcErr) {
			logger.Error("Forecast failed", "stage", svcErr.Stage, "code", svcErr.Code, "error", svcErr.Err)
			fmt.Fprintf(os.Stderr, "forecast failed at %s stage: %s\n", svcErr.Stage, svcErr.Message)
		} else {
			logger.Error("Forecast failed", "error", err)
			fmt.Fprintf(os.Stderr, "forecast failed: %v\n", err)
		}
		stop()
		os.Exit(1)
	}

	fmt.Printf("Forecast origin: %s\n", result.Origin.Format("2006-01-02 15:04:05"))
	for _, m := range result.Metrics {
		fmt.Printf("Metrics: model=%s MAE=%.2f WAPE=%.2f sMAPE=%.2f\n",
			m.Model, forecast.Round2(m.MAE), forecast.Round2(m.WAPE), forecast.Round2(m.SMAPE))
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	fmt.Println("Done. Artifacts in", filepath.Dir(result.Artifacts.Forecast))
}
