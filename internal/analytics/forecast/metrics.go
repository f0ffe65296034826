package forecast

import (
	"math"

	"github.com/gridcast/gridcast/internal/analytics"
)

const metricEpsilon = 1e-8

// Metrics holds forecast accuracy. WAPE and SMAPE are percentages.
type Metrics struct {
	MAE    float64 `json:"mae"`
	WAPE   float64 `json:"wape"`
	SMAPE  float64 `json:"smape"`
	RMSE   float64 `json:"rmse"`
	Points int     `json:"points"` // pairs scored
}

// Evaluate scores predicted against actual. When lengths differ the longer
// slice loses its head so both end at the same slot. Pairs with a null on
// either side are skipped; with no pair left every metric is 0.
func Evaluate(actual, predicted []float64) Metrics {
	actual, predicted = tailAlign(actual, predicted)

	var m Metrics
	var absErr, sqErr, absActual, smape float64
	for i := range actual {
		a, p := actual[i], predicted[i]
		if analytics.IsNull(a) || analytics.IsNull(p) {
			continue
		}
		diff := math.Abs(a - p)
		absErr += diff
		sqErr += diff * diff
		absActual += math.Abs(a)
		smape += 2 * diff / (math.Abs(a) + math.Abs(p) + metricEpsilon)
		m.Points++
	}
	if m.Points == 0 {
		return m
	}

	n := float64(m.Points)
	m.MAE = absErr / n
	m.RMSE = math.Sqrt(sqErr / n)
	m.WAPE = absErr / (absActual + metricEpsilon) * 100
	m.SMAPE = smape / n * 100
	return m
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	return Evaluate(actual, predicted).MAE
}

// CalculateWAPE calculates Weighted Absolute Percentage Error
func CalculateWAPE(actual, predicted []float64) float64 {
	return Evaluate(actual, predicted).WAPE
}

// CalculateSMAPE calculates Symmetric Mean Absolute Percentage Error
func CalculateSMAPE(actual, predicted []float64) float64 {
	return Evaluate(actual, predicted).SMAPE
}

func tailAlign(a, b []float64) ([]float64, []float64) {
	switch {
	case len(a) > len(b):
		return a[len(a)-len(b):], b
	case len(b) > len(a):
		return a, b[len(b)-len(a):]
	}
	return a, b
}

// Round2 rounds v to two decimals for reporting.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
