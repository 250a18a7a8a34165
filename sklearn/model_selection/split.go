// Package model_selection はデータ分割のユーティリティを提供する
package model_selection

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// Split は TrainTestSplit の結果
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense

	// TrainIndex と TestIndex は元の行番号
	TrainIndex, TestIndex []int
}

// TrainTestSplit は行をシャッフルして学習用とテスト用に分割する
//
// テスト件数は ceil(testSize × n_samples)、学習件数は残り（scikit-learnと同じ）。
// 同じ seed なら常に同じ分割になる。
//
// 使用例:
//
//	split, err := model_selection.TrainTestSplit(X, y, 0.2, 42)
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (*Split, error) {
	n, c := X.Dims()
	if n == 0 || c == 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if y == nil || y.Len() != n {
		got := 0
		if y != nil {
			got = y.Len()
		}
		return nil, errors.NewDimensionError("TrainTestSplit", n, got, 0)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTrain < 1 || nTest < 1 {
		return nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("n_samples=%d with test_size=%v leaves an empty split", n, testSize))
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	out := &Split{
		TestIndex:  append([]int(nil), perm[:nTest]...),
		TrainIndex: append([]int(nil), perm[nTest:]...),
	}
	out.XTrain, out.YTrain = takeRows(X, y, out.TrainIndex)
	out.XTest, out.YTest = takeRows(X, y, out.TestIndex)
	return out, nil
}

func takeRows(X mat.Matrix, y *mat.VecDense, idx []int) (*mat.Dense, *mat.VecDense) {
	_, c := X.Dims()
	xs := mat.NewDense(len(idx), c, nil)
	ys := mat.NewVecDense(len(idx), nil)
	for i, r := range idx {
		for j := 0; j < c; j++ {
			xs.Set(i, j, X.At(r, j))
		}
		ys.SetVec(i, y.AtVec(r))
	}
	return xs, ys
}
