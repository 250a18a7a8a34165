package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/creditgroup/core/model"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// 補完戦略
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
	StrategyKNN    = "knn"
	StrategyNone   = "none"
)

// SimpleImputer はscikit-learn互換の単純補完器
// NaNを各列の平均値または中央値で置き換える
type SimpleImputer struct {
	model.BaseEstimator

	// Statistics は各列の補完値（全てNaNの列はNaN）
	Statistics []float64

	strategy string
}

// NewSimpleImputer は新しいSimpleImputerを作成する
//
// パラメータ:
//   - strategy: "mean" または "median"
//
// 使用例:
//
//	imp := preprocessing.NewSimpleImputer(preprocessing.StrategyMedian)
//	filled, err := imp.FitTransform(X)
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{strategy: strategy}
}

// Strategy は補完戦略の名前を返す
func (s *SimpleImputer) Strategy() string { return s.strategy }

// Fit は各列の補完値をNaNを除いて計算する
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	var stat func([]float64) float64
	switch s.strategy {
	case StrategyMean:
		stat = nanMean
	case StrategyMedian:
		stat = nanMedian
	default:
		return errors.NewValidationError("strategy", "must be mean or median", s.strategy)
	}

	s.Statistics = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		s.Statistics[j] = stat(col)
		if math.IsNaN(s.Statistics[j]) {
			errors.Warn(errors.NewDataConversionWarning(fmt.Sprintf("%d", j), "float64", "float64",
				"column has no observed values and is left missing"))
		}
	}
	s.SetFitted()
	return nil
}

// Transform はNaNを学習済みの補完値で置き換えた新しい行列を返す
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}
	r, c := X.Dims()
	if c != len(s.Statistics) {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", len(s.Statistics), c, 1)
	}
	out := mat.DenseCopyOf(X)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(out.At(i, j)) {
				out.Set(i, j, s.Statistics[j])
			}
		}
	}
	return out, nil
}

// FitTransform はFitとTransformを続けて実行する
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func observed(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func nanMean(values []float64) float64 {
	obs := observed(values)
	if len(obs) == 0 {
		return math.NaN()
	}
	return stat.Mean(obs, nil)
}

// nanMedian averages the two middle values for an even count; stat.Quantile
// would return the lower one.
func nanMedian(values []float64) float64 {
	obs := observed(values)
	n := len(obs)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(obs)
	if n%2 == 1 {
		return obs[n/2]
	}
	return (obs[n/2-1] + obs[n/2]) / 2
}

// NewImputer は戦略名から補完器を作成する。"none" の場合はnilを返す
func NewImputer(strategy string, knnNeighbors int) (model.Imputer, error) {
	switch strategy {
	case StrategyMean, StrategyMedian:
		return NewSimpleImputer(strategy), nil
	case StrategyKNN:
		return NewKNNImputer(WithNeighbors(knnNeighbors)), nil
	case StrategyNone:
		return nil, nil
	default:
		return nil, errors.NewValueError("NewImputer",
			fmt.Sprintf("unknown imputation strategy %q (want mean, median, knn or none)", strategy))
	}
}

// Impute は指定した戦略で欠損値を補完した新しい行列を返す
func Impute(X mat.Matrix, strategy string, opts ...Option) (*mat.Dense, error) {
	imp, err := NewImputer(strategy, DefaultNeighbors)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	r, c := X.Dims()
	if imp == nil {
		o.logger.Debug("imputation skipped", log.StrategyKey, strategy)
		return mat.DenseCopyOf(X), nil
	}
	filled, err := imp.FitTransform(X)
	if err != nil {
		return nil, err
	}
	o.logger.Info("missing values imputed",
		log.OperationKey, log.OperationImpute,
		log.StrategyKey, strategy,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return mat.DenseCopyOf(filled), nil
}
