// Package log defines standard attribute keys.
//
// Keys follow a hierarchical naming convention ("data.samples",
// "column.name") so logs from detection, grouping and training can be
// filtered consistently.

package log

// Operation context
const (
	// ComponentKey identifies which package is performing the operation.
	// Examples: "preprocessing", "datasets", "lightgbm"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ModelNameKey identifies the type of estimator.
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier for a specific estimator instance.
	EstimatorIDKey = "estimator.id"
)

// Data shape
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
	PathKey     = "data.path"
)

// Column typing and grouping
const (
	// ColumnKey is the name of the column being analysed.
	ColumnKey = "column.name"

	// ColumnKindKey is the storage kind of the column before detection.
	ColumnKindKey = "column.kind"

	// CardinalityKey is the number of distinct non-null values.
	CardinalityKey = "column.cardinality"

	// SchemaTypeKey is the detected semantic type.
	SchemaTypeKey = "schema.type"

	// CascadeStepKey names the conversion attempt that decided the type.
	CascadeStepKey = "schema.step"

	// GroupKey is the column group a column was assigned to.
	GroupKey = "group.name"

	// SourceGroupKey and DestinationGroupKey describe a manual override.
	SourceGroupKey      = "group.source"
	DestinationGroupKey = "group.destination"
)

// Performance and metrics
const (
	DurationMsKey   = "perf.duration_ms"
	AccuracyKey     = "metrics.accuracy"
	LossKey         = "metrics.loss"
	IterationKey    = "training.iteration"
	StrategyKey     = "impute.strategy"
	RandomSeedKey   = "config.random_seed"
	LearningRateKey = "hyperparams.learning_rate"
)

// Standard operation values.
const (
	OperationDetect   = "detect_schema"
	OperationGroup    = "group_columns"
	OperationOverride = "override"
	OperationLoad     = "load"
	OperationImpute   = "impute"
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationScore    = "score"
)
