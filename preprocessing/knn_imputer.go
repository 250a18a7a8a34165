package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/model"
	"github.com/YuminosukeSato/creditgroup/core/parallel"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// DefaultNeighbors is the number of donors KNNImputer averages by default.
const DefaultNeighbors = 5

// Donor weighting schemes.
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// parallelThreshold is the row count above which Transform uses all cores.
const parallelThreshold = 256

// KNNImputer はk近傍の平均で欠損値を補完する
//
// 距離はscikit-learnのnan_euclideanと同じく、両方の行で観測されている
// 座標だけを使い、観測数の比で拡大する:
//
//	d(x, y) = sqrt(n_features / n_present * Σ (x_i - y_i)^2)
//
// 補完対象の特徴量が観測されている学習行だけがドナーになる。ドナーが
// 存在しない場合は学習データの列平均を使う。
type KNNImputer struct {
	model.BaseEstimator

	// NNeighbors は平均に使う近傍数
	NNeighbors int

	// Weights は "uniform"（単純平均）または "distance"（距離の逆数で重み付け）
	Weights string

	fitX      *mat.Dense
	colMeans  []float64
	nFeatures int
}

// KNNOption configures a KNNImputer.
type KNNOption func(*KNNImputer)

// WithNeighbors sets the number of neighbors. Values below 1 are ignored.
func WithNeighbors(k int) KNNOption {
	return func(imp *KNNImputer) {
		if k > 0 {
			imp.NNeighbors = k
		}
	}
}

// WithWeights sets the donor weighting, WeightsUniform or WeightsDistance.
func WithWeights(weights string) KNNOption {
	return func(imp *KNNImputer) {
		imp.Weights = weights
	}
}

// NewKNNImputer は新しいKNNImputerを作成する
func NewKNNImputer(opts ...KNNOption) *KNNImputer {
	imp := &KNNImputer{NNeighbors: DefaultNeighbors, Weights: WeightsUniform}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Strategy は補完戦略の名前を返す
func (k *KNNImputer) Strategy() string { return StrategyKNN }

// Fit は学習データを保持し、列平均を計算する
func (k *KNNImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("KNNImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	if k.Weights != WeightsUniform && k.Weights != WeightsDistance {
		return errors.NewValidationError("weights", "must be uniform or distance", k.Weights)
	}
	k.fitX = mat.DenseCopyOf(X)
	k.nFeatures = c
	k.colMeans = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, k.fitX)
		k.colMeans[j] = nanMean(col)
	}
	k.SetFitted()
	return nil
}

// Transform は各行の欠損値を近傍ドナーの平均で埋めた新しい行列を返す
func (k *KNNImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !k.IsFitted() {
		return nil, errors.NewNotFittedError("KNNImputer", "Transform")
	}
	r, c := X.Dims()
	if c != k.nFeatures {
		return nil, errors.NewDimensionError("KNNImputer.Transform", k.nFeatures, c, 1)
	}
	src := mat.DenseCopyOf(X)
	out := mat.DenseCopyOf(X)

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			k.imputeRow(src.RawRowView(i), out.RawRowView(i))
		}
	})
	return out, nil
}

// FitTransform はFitとTransformを続けて実行する
func (k *KNNImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := k.Fit(X); err != nil {
		return nil, err
	}
	return k.Transform(X)
}

type donor struct {
	dist  float64
	value float64
}

// imputeRow writes imputed values of row into dst. Rows are independent so
// it is safe to call concurrently on distinct rows.
func (k *KNNImputer) imputeRow(row, dst []float64) {
	missing := false
	for _, v := range row {
		if math.IsNaN(v) {
			missing = true
			break
		}
	}
	if !missing {
		return
	}

	nFit, _ := k.fitX.Dims()
	dists := make([]float64, nFit)
	for n := 0; n < nFit; n++ {
		dists[n] = nanEuclidean(row, k.fitX.RawRowView(n))
	}

	donors := make([]donor, 0, nFit)
	for j, v := range row {
		if !math.IsNaN(v) {
			continue
		}
		donors = donors[:0]
		for n := 0; n < nFit; n++ {
			fv := k.fitX.At(n, j)
			if math.IsNaN(fv) || math.IsNaN(dists[n]) {
				continue
			}
			donors = append(donors, donor{dist: dists[n], value: fv})
		}
		if len(donors) == 0 {
			dst[j] = k.colMeans[j]
			continue
		}
		sort.SliceStable(donors, func(a, b int) bool { return donors[a].dist < donors[b].dist })
		n := min(k.NNeighbors, len(donors))
		dst[j] = k.average(donors[:n])
	}
}

// average combines the nearest donors. With distance weights a donor at
// distance zero takes all the weight, shared with other exact matches.
func (k *KNNImputer) average(donors []donor) float64 {
	if k.Weights == WeightsDistance {
		exact, exactSum := 0, 0.0
		for _, d := range donors {
			if d.dist == 0 {
				exact++
				exactSum += d.value
			}
		}
		if exact > 0 {
			return exactSum / float64(exact)
		}
		num, den := 0.0, 0.0
		for _, d := range donors {
			w := 1 / d.dist
			num += w * d.value
			den += w
		}
		return num / den
	}
	sum := 0.0
	for _, d := range donors {
		sum += d.value
	}
	return sum / float64(len(donors))
}

// nanEuclidean returns NaN when the rows share no observed coordinate.
func nanEuclidean(a, b []float64) float64 {
	sum := 0.0
	present := 0
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		present++
	}
	if present == 0 {
		return math.NaN()
	}
	return math.Sqrt(float64(len(a)) / float64(present) * sum)
}
