package pipeline

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/model"
	"github.com/YuminosukeSato/creditgroup/metrics"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/sklearn/model_selection"
)

// contextFitter is implemented by classifiers that can stop training early.
type contextFitter interface {
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// Evaluation is the held-out result of one classifier.
type Evaluation struct {
	Accuracy    float64
	YTest       *mat.VecDense
	Predictions *mat.VecDense
	// TestIndex are the rows of X used for testing.
	TestIndex []int
}

// TrainAndEvaluate splits X and y, fits clf on the training part and
// reports accuracy on the test part.
func TrainAndEvaluate(ctx context.Context, clf model.Classifier, X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (*Evaluation, error) {
	split, err := model_selection.TrainTestSplit(X, y, testSize, seed)
	if err != nil {
		return nil, errors.Wrap(err, "train/test split")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cf, ok := clf.(contextFitter); ok {
		err = cf.FitContext(ctx, split.XTrain, split.YTrain)
	} else {
		err = clf.Fit(split.XTrain, split.YTrain)
	}
	if err != nil {
		return nil, err
	}

	pred, err := clf.Predict(split.XTest)
	if err != nil {
		return nil, err
	}
	n, _ := pred.Dims()
	predVec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		predVec.SetVec(i, pred.At(i, 0))
	}
	acc, err := metrics.Accuracy(split.YTest, predVec)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Accuracy:    acc,
		YTest:       split.YTest,
		Predictions: predVec,
		TestIndex:   split.TestIndex,
	}, nil
}
