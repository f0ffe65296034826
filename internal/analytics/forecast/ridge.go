package forecast

import (
	"fmt"
	"math"

	"github.com/gridcast/gridcast/internal/analytics/features"
	"github.com/gridcast/gridcast/internal/analytics/hourly"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxCondition bounds the condition number of the regularised normal
// equations; anything above is treated as rank deficient.
const maxCondition = 1e14

// RidgeModel is a fitted L2-regularised linear model.
type RidgeModel struct {
	Columns      []string  `json:"columns"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Alpha        float64   `json:"alpha"`
	TrainRows    int       `json:"train_rows"`
}

// Coefficient returns the coefficient of the named column.
func (m *RidgeModel) Coefficient(name string) (float64, bool) {
	for i, c := range m.Columns {
		if c == name {
			return m.Coefficients[i], true
		}
	}
	return 0, false
}

// FitRidge fits y = Xβ + b minimising |y - Xβ - b|² + alpha|β|². The
// intercept is not penalised: X and y are centred before solving
// (XcᵀXc + alpha·I)β = Xcᵀyc by Cholesky.
func FitRidge(m *features.Matrix, alpha float64) (*RidgeModel, error) {
	n, p := m.Len(), len(m.Columns)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty training matrix", ErrModel)
	}
	if alpha < 0 {
		return nil, fmt.Errorf("%w: negative alpha %v", ErrModel, alpha)
	}

	xMean := make([]float64, p)
	for _, row := range m.Rows {
		floats.Add(xMean, row)
	}
	floats.Scale(1/float64(n), xMean)
	yMean := floats.Sum(m.Target) / float64(n)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range m.Rows {
		for j, v := range row {
			xc.Set(i, j, v-xMean[j])
		}
		yc.SetVec(i, m.Target[i]-yMean)
	}
	if !finite(xc.RawMatrix().Data) || !finite(yc.RawVector().Data) {
		return nil, fmt.Errorf("%w: training matrix has non-finite values", ErrModel)
	}

	gram := mat.NewSymDense(p, nil)
	gram.SymOuterK(1, xc.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok || chol.Cond() > maxCondition {
		return nil, fmt.Errorf("%w: training matrix is rank deficient (%d rows, %d columns, alpha %v)", ErrModel, n, p, alpha)
	}

	var xty, beta mat.VecDense
	xty.MulVec(xc.T(), yc)
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModel, err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}

	return &RidgeModel{
		Columns:      append([]string(nil), m.Columns...),
		Coefficients: coef,
		Intercept:    yMean - floats.Dot(xMean, coef),
		Alpha:        alpha,
		TrainRows:    n,
	}, nil
}

// Predict evaluates the model on every row of x in one batch. x must have
// the model's columns, in order.
func (m *RidgeModel) Predict(x *features.Matrix) ([]float64, error) {
	if !features.Schema(m.Columns).Equal(x.Columns) {
		return nil, fmt.Errorf("%w: feature columns %v do not match model columns %v", ErrModel, x.Columns, m.Columns)
	}
	if x.Len() == 0 {
		return nil, nil
	}

	data := make([]float64, 0, x.Len()*len(m.Columns))
	for _, row := range x.Rows {
		data = append(data, row...)
	}
	design := mat.NewDense(x.Len(), len(m.Columns), data)

	var yhat mat.VecDense
	yhat.MulVec(design, mat.NewVecDense(len(m.Coefficients), append([]float64(nil), m.Coefficients...)))

	out := make([]float64, x.Len())
	for i := range out {
		out[i] = yhat.AtVec(i) + m.Intercept
	}
	return out, nil
}

// RidgeForecaster fits a ridge regression on the feature matrix of the
// observed history and predicts the horizon in one batch.
type RidgeForecaster struct{}

// NewRidgeForecaster creates a new ridge forecaster
func NewRidgeForecaster() *RidgeForecaster {
	return &RidgeForecaster{}
}

func init() {
	RegisterForecaster("ridge_regression", NewRidgeForecaster())
}

// Name returns the algorithm name
func (f *RidgeForecaster) Name() string {
	return "ridge_regression"
}

// Forecast fits on every usable row up to the origin and predicts the
// horizon from the aligned future matrix.
func (f *RidgeForecaster) Forecast(series *hourly.Series, config ForecastConfig) (*ForecastResult, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}

	builder := features.NewBuilder(config.Features)
	train, stats := builder.BuildTraining(series)

	model, err := FitRidge(train, config.Alpha)
	if err != nil {
		return nil, err
	}

	future := features.Align(train, builder.BuildFuture(series))
	yhat, err := model.Predict(future)
	if err != nil {
		return nil, err
	}

	predictions := make([]ForecastPoint, len(yhat))
	for i, v := range yhat {
		predictions[i] = ForecastPoint{Time: future.Times[i], Value: v}
	}

	return &ForecastResult{
		Predictions: predictions,
		ModelInfo: ModelInfo{
			Algorithm: f.Name(),
			Parameters: map[string]interface{}{
				"alpha":              config.Alpha,
				"features":           len(model.Columns),
				"dropped_null":       stats.NullTarget,
				"dropped_lags":       stats.MissingLags,
				"dropped_null_other": stats.NullFeature,
			},
			DataPoints: model.TrainRows,
		},
		Ridge: model,
	}, nil
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
