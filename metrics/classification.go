// Package metrics は分類モデルの評価指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// logLossEps は log(0) を避けるための確率のクリップ幅
const logLossEps = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy は予測ラベルが正解ラベルと一致した割合を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// MultiLogLoss は多クラス交差エントロピーを計算する
//
// パラメータ:
//   - yTrue: クラスインデックス (0..n_classes-1)
//   - proba: 予測確率 (n_samples × n_classes)
func MultiLogLoss(yTrue *mat.VecDense, proba mat.Matrix) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError("MultiLogLoss", "empty vector")
	}
	n := yTrue.Len()
	r, k := proba.Dims()
	if r != n {
		return 0, errors.NewDimensionError("MultiLogLoss", n, r, 0)
	}
	var sum float64
	for i := 0; i < n; i++ {
		c := int(yTrue.AtVec(i))
		if c < 0 || c >= k || float64(c) != yTrue.AtVec(i) {
			return 0, errors.NewValueError("MultiLogLoss", "labels must be class indices")
		}
		p := math.Min(math.Max(proba.At(i, c), logLossEps), 1-logLossEps)
		sum -= math.Log(p)
	}
	return sum / float64(n), nil
}

// ConfusionMatrix は labels の順で confusion[i][j] = 正解 labels[i] を labels[j] と予測した件数 を返す
// labels に含まれない値は無視される
func ConfusionMatrix(yTrue, yPred *mat.VecDense, labels []float64) (*mat.Dense, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "no labels")
	}
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		ti, ok1 := index[yTrue.AtVec(i)]
		pi, ok2 := index[yPred.AtVec(i)]
		if ok1 && ok2 {
			cm.Set(ti, pi, cm.At(ti, pi)+1)
		}
	}
	return cm, nil
}
