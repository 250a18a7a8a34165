// Package pipeline は型推定からグルーピング、補完、学習、評価までを一続きで実行します。
//
// 使用例:
//
//	cfg := datasets.DefaultConfig()
//	tbl, _ := datasets.LoadCreditData(cfg, "")
//	res, err := pipeline.Run(ctx, cfg, tbl)
//	fmt.Println(res.Accuracy)
package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/model"
	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/datasets"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
	"github.com/YuminosukeSato/creditgroup/preprocessing"
	"github.com/YuminosukeSato/creditgroup/sklearn/lightgbm"
)

// Result は1回の実行結果
type Result struct {
	Schema preprocessing.Schema
	Groups preprocessing.ColumnGroups

	// Features are the model inputs in matrix column order.
	Features []string
	// Classes are the target labels; predictions index into them.
	Classes []string

	Accuracy    float64
	Predictions []string
	// BaselineAccuracy is set when a baseline classifier is configured.
	BaselineAccuracy float64
	// TestIndex maps each prediction to its row in the input table.
	TestIndex []int

	// DroppedRows counts rows skipped for a missing target.
	DroppedRows int
	// OverrideErr joins the overrides that could not be applied.
	OverrideErr error

	Model *lightgbm.LGBMClassifier
}

// Pipeline runs the credit-score experiment for one configuration.
type Pipeline struct {
	cfg        *datasets.Config
	logger     log.Logger
	classifier *lightgbm.LGBMClassifier
	baseline   model.Classifier
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for every stage.
func WithLogger(l log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithClassifier replaces the default LightGBM classifier.
func WithClassifier(clf *lightgbm.LGBMClassifier) Option {
	return func(p *Pipeline) {
		p.classifier = clf
	}
}

// WithBaseline also evaluates clf on the same split for comparison. The
// baseline sees the imputed matrix, so estimators that reject NaN need an
// imputation strategy other than "none".
func WithBaseline(clf model.Classifier) Option {
	return func(p *Pipeline) {
		p.baseline = clf
	}
}

// New creates a Pipeline. A nil cfg uses datasets.DefaultConfig.
func New(cfg *datasets.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = datasets.DefaultConfig()
	}
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("pipeline")
	}
	if p.classifier == nil {
		p.classifier = lightgbm.NewLGBMClassifier().WithLogger(p.logger)
	}
	return p
}

// Run is New(cfg).Run(ctx, tbl, overrides...).
func Run(ctx context.Context, cfg *datasets.Config, tbl *table.Table, overrides ...preprocessing.Override) (*Result, error) {
	return New(cfg).Run(ctx, tbl, overrides...)
}

// Run detects the schema, groups the columns, applies overrides, imputes,
// splits, trains and scores. Invalid overrides do not stop the run and are
// reported in Result.OverrideErr.
func (p *Pipeline) Run(ctx context.Context, tbl *table.Table, overrides ...preprocessing.Override) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := tbl.Column(p.cfg.TargetCol); !ok {
		return nil, errors.NewColumnError("pipeline.Run", p.cfg.TargetCol, "target column not found")
	}
	start := time.Now()
	opts := []preprocessing.Option{
		preprocessing.WithCategoricalRatio(p.cfg.CategoricalRatio),
		preprocessing.WithIdentifierRatio(p.cfg.IdentifierRatio),
		preprocessing.WithLogger(p.logger),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	typed, schema, err := preprocessing.NewSchemaDetector(opts...).Detect(tbl)
	if err != nil {
		return nil, errors.Wrap(err, "detect schema")
	}

	groups := preprocessing.NewColumnGrouper(opts...).Group(typed)
	groups, overrideErr := preprocessing.ApplyOverrides(groups, overrides, opts...)
	res := &Result{Schema: schema, Groups: groups, OverrideErr: overrideErr}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	features, err := BuildFeatures(typed, groups, p.cfg.TargetCol)
	if err != nil {
		return nil, err
	}
	res.Features = features.Names

	target, _ := typed.Column(p.cfg.TargetCol)
	y, targetEnc, err := EncodeTarget(target)
	if err != nil {
		return nil, err
	}
	res.Classes = targetEnc.Classes

	X, y, dropped := labelledRows(features.X, y)
	res.DroppedRows = dropped
	if X == nil {
		return nil, errors.NewColumnError("pipeline.Run", p.cfg.TargetCol, "every target value is missing")
	}
	if dropped > 0 {
		p.logger.Warn("rows without target dropped", log.ColumnKey, p.cfg.TargetCol, log.SamplesKey, dropped)
	}

	X, err = p.impute(X)
	if err != nil {
		return nil, err
	}

	ev, err := TrainAndEvaluate(ctx, p.classifier, X, y, p.cfg.TestSize, p.cfg.RandomState)
	if err != nil {
		return nil, err
	}
	labels, err := targetEnc.InverseTransform(ev.Predictions.RawVector().Data)
	if err != nil {
		return nil, err
	}
	res.Accuracy = ev.Accuracy
	res.Predictions = labels
	res.TestIndex = originalRows(target, ev.TestIndex)
	res.Model = p.classifier

	if p.baseline != nil {
		base, err := TrainAndEvaluate(ctx, p.baseline, X, y, p.cfg.TestSize, p.cfg.RandomState)
		if err != nil {
			return nil, errors.Wrap(err, "baseline")
		}
		res.BaselineAccuracy = base.Accuracy
	}

	p.logger.Info("pipeline completed",
		log.SamplesKey, tbl.NumRows(),
		log.FeaturesKey, len(res.Features),
		log.AccuracyKey, res.Accuracy,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Pipeline) impute(X *mat.Dense) (*mat.Dense, error) {
	imp, err := preprocessing.NewImputer(p.cfg.ImputeStrategy, p.cfg.KNNNeighbors)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return X, nil
	}
	filled, err := imp.FitTransform(X)
	if err != nil {
		return nil, errors.Wrapf(err, "impute (%s)", imp.Strategy())
	}
	r, c := X.Dims()
	p.logger.Info("missing values imputed",
		log.OperationKey, log.OperationImpute,
		log.StrategyKey, imp.Strategy(),
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)
	return mat.DenseCopyOf(filled), nil
}

// originalRows maps indices over labelled rows back to table rows.
func originalRows(target *table.Column, idx []int) []int {
	labelled := make([]int, 0, target.Len())
	for i := 0; i < target.Len(); i++ {
		if !target.IsNull(i) {
			labelled = append(labelled, i)
		}
	}
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = labelled[j]
	}
	return out
}
