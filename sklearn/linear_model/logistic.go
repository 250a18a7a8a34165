// Package linear_model は線形分類モデルを提供します。
// LGBMClassifier と比較するためのベースラインとして使います。
package linear_model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/creditgroup/core/model"
	"github.com/YuminosukeSato/creditgroup/metrics"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// LogisticRegression is multinomial logistic regression with an L2 penalty,
// fitted by full-batch gradient descent on standardized features.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	C            float64 // Inverse regularization strength
	FitIntercept bool
	MaxIter      int
	Tol          float64 // Stop when the largest gradient entry is below Tol
	LearningRate float64

	// Learned parameters, in standardized feature space.
	Coef      *mat.Dense // n_classes × n_features
	Intercept []float64
	NIter     int

	classes []float64
	mean    []float64
	scale   []float64
	logger  log.Logger
}

var _ model.Classifier = (*LogisticRegression)(nil)

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLRFitIntercept sets whether to fit intercept
func WithLRFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.FitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.MaxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.Tol = tol
	}
}

// WithLRLearningRate sets the gradient descent step
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.LearningRate = rate
	}
}

// WithLRLogger sets the logger
func WithLRLogger(l log.Logger) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.logger = l
	}
}

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		C:            1.0,
		FitIntercept: true,
		MaxIter:      100,
		Tol:          1e-4,
		LearningRate: 0.5,
	}
	for _, opt := range opts {
		opt(lr)
	}
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear_model.logistic")
	}
	return lr
}

// Fit trains the model. y is an n×1 matrix of labels. X must not contain NaN.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}
	if !(lr.C > 0) {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be >= 1", lr.MaxIter)
	}
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			if math.IsNaN(X.At(i, j)) {
				return errors.NewValueError("LogisticRegression.Fit",
					fmt.Sprintf("input contains NaN at (%d, %d); impute missing values first", i, j))
			}
		}
	}

	lr.extractClasses(y)
	k := len(lr.classes)
	if k < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "y contains fewer than 2 classes")
	}
	index := make(map[float64]int, k)
	for i, c := range lr.classes {
		index[c] = i
	}
	onehot := mat.NewDense(nSamples, k, nil)
	for i := 0; i < nSamples; i++ {
		onehot.Set(i, index[y.At(i, 0)], 1)
	}

	lr.fitScaler(X)
	xs := lr.standardize(X)

	lr.Coef = mat.NewDense(k, nFeatures, nil)
	lr.Intercept = make([]float64, k)
	lambda := 1.0 / (lr.C * float64(nSamples))
	n := float64(nSamples)

	residual := mat.NewDense(nSamples, k, nil)
	grad := mat.NewDense(k, nFeatures, nil)
	for iter := 0; iter < lr.MaxIter; iter++ {
		lr.NIter = iter + 1
		residual.Copy(lr.probabilities(xs))
		residual.Sub(residual, onehot)

		// (P - Y)^T X / n + lambda W
		grad.Mul(residual.T(), xs)
		grad.Scale(1/n, grad)
		reg := mat.DenseCopyOf(lr.Coef)
		reg.Scale(lambda, reg)
		grad.Add(grad, reg)

		maxGrad := maxAbs(grad)
		step := mat.DenseCopyOf(grad)
		step.Scale(lr.LearningRate, step)
		lr.Coef.Sub(lr.Coef, step)

		if lr.FitIntercept {
			for c := 0; c < k; c++ {
				g := mat.Sum(residual.ColView(c)) / n
				lr.Intercept[c] -= lr.LearningRate * g
				maxGrad = math.Max(maxGrad, math.Abs(g))
			}
		}
		if maxGrad < lr.Tol {
			break
		}
	}

	lr.SetFitted()
	lr.logger.Debug("logistic regression fitted",
		log.ModelNameKey, "LogisticRegression",
		log.EstimatorIDKey, lr.ID(),
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, lr.NIter,
	)
	return nil
}

// maxAbs returns the largest absolute entry of m.
func maxAbs(m *mat.Dense) float64 {
	r, c := m.Dims()
	out := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = math.Max(out, math.Abs(m.At(i, j)))
		}
	}
	return out
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	lr.classes = lr.classes[:0]
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if !seen[v] {
			seen[v] = true
			lr.classes = append(lr.classes, v)
		}
	}
	sort.Float64s(lr.classes)
}

func (lr *LogisticRegression) fitScaler(X mat.Matrix) {
	rows, cols := X.Dims()
	lr.mean = make([]float64, cols)
	lr.scale = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		m, s := stat.MeanStdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		lr.mean[j], lr.scale[j] = m, s
	}
}

func (lr *LogisticRegression) standardize(X mat.Matrix) *mat.Dense {
	rows, cols := X.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - lr.mean[j]) / lr.scale[j]
	}, X)
	return out
}

// probabilities applies softmax to the linear scores of standardized xs.
func (lr *LogisticRegression) probabilities(xs *mat.Dense) *mat.Dense {
	rows, _ := xs.Dims()
	k := len(lr.classes)
	scores := mat.NewDense(rows, k, nil)
	scores.Mul(xs, lr.Coef.T())
	row := make([]float64, k)
	for i := 0; i < rows; i++ {
		maxScore := math.Inf(-1)
		for c := 0; c < k; c++ {
			row[c] = scores.At(i, c) + lr.Intercept[c]
			maxScore = math.Max(maxScore, row[c])
		}
		sum := 0.0
		for c := range row {
			row[c] = math.Exp(row[c] - maxScore)
			sum += row[c]
		}
		for c := range row {
			scores.Set(i, c, row[c]/sum)
		}
	}
	return scores
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	if _, cols := X.Dims(); cols != len(lr.mean) {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", len(lr.mean), cols, 1)
	}
	return lr.probabilities(lr.standardize(X)), nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, k := proba.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for c := 1; c < k; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		out.Set(i, 0, lr.classes[best])
	}
	return out, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := pred.Dims()
	if yRows, _ := y.Dims(); yRows != rows {
		return 0, errors.NewDimensionError("LogisticRegression.Score", rows, yRows, 0)
	}
	yTrue := mat.NewVecDense(rows, nil)
	yPred := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, pred.At(i, 0))
	}
	return metrics.Accuracy(yTrue, yPred)
}

// Classes returns the class labels seen during fitting, ascending.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.classes...)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.C,
		"fit_intercept": lr.FitIntercept,
		"max_iter":      lr.MaxIter,
		"tol":           lr.Tol,
		"learning_rate": lr.LearningRate,
	}
}
