package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

func sample(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i*10))
		y.SetVec(i, float64(i%3))
	}
	return X, y
}

func TestTrainTestSplitSizes(t *testing.T) {
	X, y := sample(10)
	split, err := TrainTestSplit(X, y, 0.25, 42)
	require.NoError(t, err)

	// ceil(2.5) = 3
	assert.Len(t, split.TestIndex, 3)
	assert.Len(t, split.TrainIndex, 7)
	r, c := split.XTrain.Dims()
	assert.Equal(t, 7, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3, split.YTest.Len())

	all := append(append([]int{}, split.TrainIndex...), split.TestIndex...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
}

func TestTrainTestSplitRowsStayAligned(t *testing.T) {
	X, y := sample(20)
	split, err := TrainTestSplit(X, y, 0.2, 7)
	require.NoError(t, err)

	for i, src := range split.TrainIndex {
		assert.Equal(t, float64(src), split.XTrain.At(i, 0))
		assert.Equal(t, float64(src*10), split.XTrain.At(i, 1))
		assert.Equal(t, y.AtVec(src), split.YTrain.AtVec(i))
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	X, y := sample(50)
	a, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)
	b, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, a.TestIndex, b.TestIndex)

	c, err := TrainTestSplit(X, y, 0.2, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a.TestIndex, c.TestIndex)
}

func TestTrainTestSplitErrors(t *testing.T) {
	X, y := sample(4)

	_, err := TrainTestSplit(X, y, 0, 1)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = TrainTestSplit(X, mat.NewVecDense(3, nil), 0.5, 1)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = TrainTestSplit(mat.NewDense(1, 1, nil), mat.NewVecDense(1, nil), 0.5, 1)
	assert.Error(t, err)
}
