package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/datasets"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
	"github.com/YuminosukeSato/creditgroup/preprocessing"
	"github.com/YuminosukeSato/creditgroup/sklearn/lightgbm"
	"github.com/YuminosukeSato/creditgroup/sklearn/linear_model"
)

func letters(i int) string {
	s := ""
	for {
		s = string(rune('a'+i%26)) + s
		i /= 26
		if i == 0 {
			return s
		}
	}
}

// creditTable builds a small credit table where Credit_Mix is decided by
// the number of bank accounts.
func creditTable(n int) *table.Table {
	ids := make([]any, n)
	customers := make([]any, n)
	accounts := make([]any, n)
	cards := make([]any, n)
	occupations := make([]any, n)
	mix := make([]any, n)
	jobs := []string{"Scientist", "Teacher", "Engineer", "Lawyer"}
	for i := 0; i < n; i++ {
		ids[i] = "ROW_" + letters(i)
		customers[i] = "CUS_" + letters(i%50)
		acc := i%9 + 1
		accounts[i] = fmt.Sprint(acc)
		if i%10 != 3 {
			cards[i] = float64(i % 7)
		}
		occupations[i] = jobs[i%len(jobs)]
		switch {
		case acc <= 3:
			mix[i] = "Good"
		case acc <= 6:
			mix[i] = "Standard"
		default:
			mix[i] = "Bad"
		}
	}
	return table.MustNew(
		table.MustColumn("ID", table.KindObject, ids...),
		table.MustColumn("Customer_ID", table.KindObject, customers...),
		table.MustColumn("Num_Bank_Accounts", table.KindObject, accounts...),
		table.MustColumn("Num_Credit_Card", table.KindNumeric, cards...),
		table.MustColumn("Occupation", table.KindObject, occupations...),
		table.MustColumn("Credit_Mix", table.KindObject, mix...),
	)
}

func testPipeline(cfg *datasets.Config, opts ...Option) *Pipeline {
	logger, _ := log.NewTestLogger(log.LevelError)
	clf := lightgbm.NewLGBMClassifier().
		WithNumIterations(30).
		WithLearningRate(0.3).
		WithMinChildSamples(5).
		WithLogger(logger)
	return New(cfg, append([]Option{WithLogger(logger), WithClassifier(clf)}, opts...)...)
}

func TestRun(t *testing.T) {
	cfg := datasets.DefaultConfig()
	res, err := testPipeline(cfg).Run(context.Background(), creditTable(200))
	require.NoError(t, err)

	assert.Equal(t, preprocessing.TypeNumeric, res.Schema["Num_Bank_Accounts"])
	assert.Equal(t, preprocessing.TypeCategorical, res.Schema["Credit_Mix"])
	assert.Equal(t, []string{"ID", "Customer_ID"}, res.Groups.Get(preprocessing.GroupID))
	assert.Equal(t, []string{"Occupation", "Credit_Mix"}, res.Groups.Get(preprocessing.GroupCategorical))

	assert.Equal(t, []string{"Num_Bank_Accounts", "Num_Credit_Card", "Occupation"}, res.Features)
	assert.Equal(t, []string{"Bad", "Good", "Standard"}, res.Classes)
	assert.Len(t, res.Predictions, 40)
	assert.Len(t, res.TestIndex, 40)
	assert.GreaterOrEqual(t, res.Accuracy, 0.9)
	assert.NoError(t, res.OverrideErr)
	assert.Zero(t, res.DroppedRows)
	require.NotNil(t, res.Model)
	assert.True(t, res.Model.IsFitted())
}

func TestRunWithOverrides(t *testing.T) {
	overrides := []preprocessing.Override{
		{SourceGroup: "categorical", DestinationGroup: "other", ColumnName: "Occupation"},
		{SourceGroup: "date", DestinationGroup: "other", ColumnName: "Occupation"},
	}
	res, err := testPipeline(datasets.DefaultConfig()).Run(context.Background(), creditTable(200), overrides...)
	require.NoError(t, err)

	assert.Equal(t, []string{"Occupation"}, res.Groups.Get(preprocessing.GroupOther))
	assert.Equal(t, []string{"Num_Bank_Accounts", "Num_Credit_Card"}, res.Features)

	var oErr *errors.OverrideError
	require.True(t, errors.As(res.OverrideErr, &oErr))
	assert.Equal(t, "Occupation", oErr.Column)
}

func TestRunImputeStrategies(t *testing.T) {
	for _, strategy := range []string{"mean", "median", "knn", "none"} {
		t.Run(strategy, func(t *testing.T) {
			cfg := datasets.DefaultConfig()
			cfg.ImputeStrategy = strategy
			res, err := testPipeline(cfg).Run(context.Background(), creditTable(120))
			require.NoError(t, err)
			assert.Len(t, res.Predictions, 24)
		})
	}
}

func TestRunDropsMissingTargets(t *testing.T) {
	tbl := creditTable(100)
	mix, _ := tbl.Column("Credit_Mix")
	values := append([]any(nil), mix.Values...)
	values[0], values[1] = nil, nil
	tbl, err := tbl.WithColumn(table.MustColumn("Credit_Mix", table.KindObject, values...))
	require.NoError(t, err)

	res, err := testPipeline(datasets.DefaultConfig()).Run(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, 2, res.DroppedRows)
	for _, row := range res.TestIndex {
		assert.GreaterOrEqual(t, row, 2)
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("missing target", func(t *testing.T) {
		cfg := datasets.DefaultConfig()
		cfg.TargetCol = "Credit_Score"
		_, err := testPipeline(cfg).Run(context.Background(), creditTable(50))

		var colErr *errors.ColumnError
		require.True(t, errors.As(err, &colErr))
		assert.Equal(t, "Credit_Score", colErr.Column)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := datasets.DefaultConfig()
		cfg.ImputeStrategy = "mode"
		_, err := testPipeline(cfg).Run(context.Background(), creditTable(50))

		var vErr *errors.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("no features", func(t *testing.T) {
		tbl := table.MustNew(
			table.MustColumn("ID", table.KindObject, "a", "b", "c", "d"),
			table.MustColumn("Credit_Mix", table.KindObject, "Good", "Bad", "Good", "Bad"),
		)
		_, err := testPipeline(datasets.DefaultConfig()).Run(context.Background(), tbl)

		var vErr *errors.ValueError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := testPipeline(datasets.DefaultConfig()).Run(ctx, creditTable(50))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildFeatures(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(
		table.MustColumn("Income", table.KindNumeric, 10.5, nil, 3),
		table.MustColumn("Flag", table.KindBool, true, false, nil),
		table.MustColumn("Opened", table.KindDatetime, day, nil, day),
		table.MustColumn("Job", table.KindString, "b", "a", nil),
		table.MustColumn("Credit_Mix", table.KindString, "Good", "Bad", "Good"),
	)
	groups := preprocessing.NewColumnGroups()
	groups[preprocessing.GroupContinuous] = []string{"Income", "Opened"}
	groups[preprocessing.GroupBinary] = []string{"Flag"}
	groups[preprocessing.GroupCategorical] = []string{"Job", "Credit_Mix"}

	fs, err := BuildFeatures(tbl, groups, "Credit_Mix")
	require.NoError(t, err)

	assert.Equal(t, []string{"Income", "Flag", "Opened", "Job"}, fs.Names)
	assert.Equal(t, []float64{10.5, 1, float64(day.Unix()), 1}, fs.X.RawRowView(0))
	row1 := fs.X.RawRowView(1)
	assert.True(t, math.IsNaN(row1[0]))
	assert.Equal(t, 0.0, row1[1])
	assert.True(t, math.IsNaN(row1[2]))
	assert.Equal(t, 0.0, row1[3])
	require.Contains(t, fs.Encoders, "Job")
	assert.Equal(t, []string{"a", "b"}, fs.Encoders["Job"].Classes)
}

func TestEncodeTargetNeedsTwoClasses(t *testing.T) {
	_, _, err := EncodeTarget(table.MustColumn("Credit_Mix", table.KindString, "Good", "Good"))
	var colErr *errors.ColumnError
	assert.True(t, errors.As(err, &colErr))
}

func TestPlotGroupSizes(t *testing.T) {
	groups := preprocessing.NewColumnGroups()
	groups[preprocessing.GroupID] = []string{"ID", "Customer_ID"}
	groups[preprocessing.GroupContinuous] = []string{"Age"}

	path := filepath.Join(t.TempDir(), "groups.png")
	require.NoError(t, PlotGroupSizes(groups, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunWithBaseline(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelError)
	baseline := linear_model.NewLogisticRegression(linear_model.WithLRLogger(logger), linear_model.WithLRMaxIter(300))
	p := testPipeline(datasets.DefaultConfig(), WithBaseline(baseline))

	res, err := p.Run(context.Background(), creditTable(200))
	require.NoError(t, err)
	assert.Greater(t, res.BaselineAccuracy, 0.0)
	assert.LessOrEqual(t, res.BaselineAccuracy, 1.0)
}

func TestTrainAndEvaluate(t *testing.T) {
	n := 100
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		if i >= n/2 {
			y.SetVec(i, 1)
		}
	}
	logger, _ := log.NewTestLogger(log.LevelError)
	clf := linear_model.NewLogisticRegression(linear_model.WithLRLogger(logger), linear_model.WithLRMaxIter(500))

	ev, err := TrainAndEvaluate(context.Background(), clf, X, y, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, ev.TestIndex, 20)
	assert.Equal(t, 20, ev.Predictions.Len())
	assert.GreaterOrEqual(t, ev.Accuracy, 0.9)
	for i, row := range ev.TestIndex {
		assert.Equal(t, y.AtVec(row), ev.YTest.AtVec(i))
	}
}
