package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/gridcast/gridcast/internal/analytics"
	"github.com/gridcast/gridcast/internal/analytics/forecast"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
)

// PlotForecast renders actuals followed by the ridge and seasonal naive
// forecasts into a PNG
func PlotForecast(path string, actual *hourly.Series, ridge, naive []forecast.ForecastPoint) error {
	days := 0
	if actual != nil {
		days = (actual.Len() + 23) / 24
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Last %d days actuals and final 24-hour forecast", days)
	p.X.Label.Text = "timestamp"
	p.Y.Label.Text = "kWh"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02 15h"}
	p.Add(plotter.NewGrid())

	lines := []struct {
		label string
		xys   plotter.XYs
	}{
		{"Actual", seriesXYs(actual)},
		{"Ridge forecast", pointXYs(ridge)},
		{"Seasonal naive", pointXYs(naive)},
	}

	for i, l := range lines {
		if len(l.xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(l.xys)
		if err != nil {
			return fmt.Errorf("failed to plot %s: %w", l.label, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(l.label, line)
	}
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

// seriesXYs skips null slots
func seriesXYs(s *hourly.Series) plotter.XYs {
	if s == nil {
		return nil
	}
	xys := make(plotter.XYs, 0, s.Len())
	for i, t := range s.Times {
		if analytics.IsNull(s.KWh[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: unix(t), Y: s.KWh[i]})
	}
	return xys
}

func pointXYs(points []forecast.ForecastPoint) plotter.XYs {
	xys := make(plotter.XYs, 0, len(points))
	for _, pt := range points {
		if analytics.IsNull(pt.Value) {
			continue
		}
		xys = append(xys, plotter.XY{X: unix(pt.Time), Y: pt.Value})
	}
	return xys
}

func unix(t time.Time) float64 {
	return float64(t.Unix())
}
