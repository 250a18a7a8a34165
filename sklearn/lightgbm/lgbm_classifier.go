package lightgbm

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/model"
	"github.com/YuminosukeSato/creditgroup/metrics"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// LGBMClassifier implements a LightGBM classifier with scikit-learn compatible API
type LGBMClassifier struct {
	model.BaseEstimator

	// Model
	Model *Model

	// Hyperparameters (matching Python LightGBM)
	NumLeaves       int     // Number of leaves in one tree
	MaxDepth        int     // Maximum tree depth, <= 0 for no limit
	LearningRate    float64 // Boosting learning rate
	NumIterations   int     // Number of boosting iterations
	MinChildSamples int     // Minimum number of data in one leaf
	MinChildWeight  float64 // Minimum sum of hessians in one leaf
	RegLambda       float64 // L2 regularization
	MaxBin          int     // Maximum number of histogram bins per feature

	logger     log.Logger
	classes    []float64
	nFeatures_ int
}

var _ model.Classifier = (*LGBMClassifier)(nil)

// NewLGBMClassifier creates a new LightGBM classifier with default parameters
func NewLGBMClassifier() *LGBMClassifier {
	d := DefaultTrainingParams()
	return &LGBMClassifier{
		NumLeaves:       d.NumLeaves,
		MaxDepth:        d.MaxDepth,
		LearningRate:    d.LearningRate,
		NumIterations:   d.NumIterations,
		MinChildSamples: d.MinDataInLeaf,
		MinChildWeight:  d.MinSumHessianInLeaf,
		RegLambda:       d.Lambda,
		MaxBin:          d.MaxBin,
	}
}

// WithNumLeaves sets the number of leaves
func (lgb *LGBMClassifier) WithNumLeaves(n int) *LGBMClassifier {
	lgb.NumLeaves = n
	return lgb
}

// WithMaxDepth sets the maximum depth
func (lgb *LGBMClassifier) WithMaxDepth(d int) *LGBMClassifier {
	lgb.MaxDepth = d
	return lgb
}

// WithLearningRate sets the learning rate
func (lgb *LGBMClassifier) WithLearningRate(lr float64) *LGBMClassifier {
	lgb.LearningRate = lr
	return lgb
}

// WithNumIterations sets the number of boosting iterations
func (lgb *LGBMClassifier) WithNumIterations(n int) *LGBMClassifier {
	lgb.NumIterations = n
	return lgb
}

// WithMinChildSamples sets the minimum number of samples per leaf
func (lgb *LGBMClassifier) WithMinChildSamples(n int) *LGBMClassifier {
	lgb.MinChildSamples = n
	return lgb
}

// WithRegLambda sets the L2 regularization
func (lgb *LGBMClassifier) WithRegLambda(l float64) *LGBMClassifier {
	lgb.RegLambda = l
	return lgb
}

// WithMaxBin sets the maximum number of histogram bins
func (lgb *LGBMClassifier) WithMaxBin(n int) *LGBMClassifier {
	lgb.MaxBin = n
	return lgb
}

// WithLogger sets the logger used during training
func (lgb *LGBMClassifier) WithLogger(l log.Logger) *LGBMClassifier {
	lgb.logger = l
	return lgb
}

func (lgb *LGBMClassifier) getLogger() log.Logger {
	if lgb.logger == nil {
		lgb.logger = log.GetLoggerWithName("lightgbm.classifier")
	}
	return lgb.logger
}

// Fit trains the classifier. y is an n×1 matrix of labels.
func (lgb *LGBMClassifier) Fit(X, y mat.Matrix) error {
	return lgb.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation between boosting iterations.
func (lgb *LGBMClassifier) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LGBMClassifier.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("LGBMClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows != yRows {
		return errors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Fit", 1, yCols, 1)
	}

	yv := make([]float64, rows)
	for i := range yv {
		yv[i] = y.At(i, 0)
		if math.IsNaN(yv[i]) {
			return errors.NewValueError("LGBMClassifier.Fit", fmt.Sprintf("missing label at row %d", i))
		}
	}
	classes := sortedClasses(yv)
	if len(classes) < 2 {
		return errors.NewValueError("LGBMClassifier.Fit", "y contains fewer than 2 classes")
	}
	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	labels := make([]int, rows)
	for i, v := range yv {
		labels[i] = index[v]
	}

	params := TrainingParams{
		NumIterations:       lgb.NumIterations,
		LearningRate:        lgb.LearningRate,
		NumLeaves:           lgb.NumLeaves,
		MaxDepth:            lgb.MaxDepth,
		MinDataInLeaf:       lgb.MinChildSamples,
		Lambda:              lgb.RegLambda,
		MinSumHessianInLeaf: lgb.MinChildWeight,
		MaxBin:              lgb.MaxBin,
		NumClass:            len(classes),
	}

	logger := lgb.getLogger().With(
		log.ModelNameKey, "LGBMClassifier",
		log.EstimatorIDKey, lgb.ID(),
	)
	logger.Info("training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(classes),
		log.LearningRateKey, lgb.LearningRate,
	)
	start := time.Now()

	m, err := NewTrainer(params, logger).Fit(ctx, X, labels)
	if err != nil {
		return errors.Wrap(err, "training failed")
	}

	lgb.Model = m
	lgb.classes = classes
	lgb.nFeatures_ = cols
	lgb.SetFitted()

	logger.Info("training completed",
		log.IterationKey, m.NumIterations(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// PredictProba returns class probabilities (n_samples × n_classes), columns
// in the order of Classes().
func (lgb *LGBMClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lgb.IsFitted() {
		return nil, errors.NewNotFittedError("LGBMClassifier", "PredictProba")
	}
	_, cols := X.Dims()
	if cols != lgb.nFeatures_ {
		return nil, errors.NewDimensionError("PredictProba", lgb.nFeatures_, cols, 1)
	}
	return lgb.Model.PredictProba(X), nil
}

// Predict returns the most probable label per sample (n_samples × 1).
func (lgb *LGBMClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lgb.IsFitted() {
		return nil, errors.NewNotFittedError("LGBMClassifier", "Predict")
	}
	proba, err := lgb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, k := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best := 0
		for c := 1; c < k; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		out.Set(i, 0, lgb.classes[best])
	}
	return out, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lgb *LGBMClassifier) Score(X, y mat.Matrix) (float64, error) {
	if !lgb.IsFitted() {
		return 0, errors.NewNotFittedError("LGBMClassifier", "Score")
	}
	predictions, err := lgb.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := y.Dims()
	pr, _ := predictions.Dims()
	if rows != pr {
		return 0, errors.NewDimensionError("Score", pr, rows, 0)
	}
	yVec := mat.NewVecDense(rows, nil)
	predVec := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		yVec.SetVec(i, y.At(i, 0))
		predVec.SetVec(i, predictions.At(i, 0))
	}
	return metrics.Accuracy(yVec, predVec)
}

// Classes returns the class labels seen during fitting, ascending.
func (lgb *LGBMClassifier) Classes() []float64 {
	return append([]float64(nil), lgb.classes...)
}

// GetFeatureImportance returns feature importance ("split" or "gain").
func (lgb *LGBMClassifier) GetFeatureImportance(importanceType string) []float64 {
	if lgb.Model == nil {
		return nil
	}
	return lgb.Model.FeatureImportance(importanceType)
}

// GetParams returns the hyperparameters using Python LightGBM names.
func (lgb *LGBMClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"num_leaves":        lgb.NumLeaves,
		"max_depth":         lgb.MaxDepth,
		"learning_rate":     lgb.LearningRate,
		"n_estimators":      lgb.NumIterations,
		"min_child_samples": lgb.MinChildSamples,
		"min_child_weight":  lgb.MinChildWeight,
		"reg_lambda":        lgb.RegLambda,
		"max_bin":           lgb.MaxBin,
	}
}
