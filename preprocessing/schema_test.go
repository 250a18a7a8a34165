package preprocessing

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

func quietDetector(opts ...Option) *SchemaDetector {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewSchemaDetector(append([]Option{WithLogger(logger)}, opts...)...)
}

func detectOne(t *testing.T, col *table.Column) (*table.Column, SchemaType) {
	t.Helper()
	adjusted, schema, err := quietDetector().Detect(table.MustNew(col))
	require.NoError(t, err)
	out, ok := adjusted.Column(col.Name)
	require.True(t, ok)
	return out, schema[col.Name]
}

func TestDetectStorageTypes(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tbl := table.MustNew(
		table.MustColumn("Age", table.KindNumeric, 25, 30),
		table.MustColumn("Opened", table.KindDatetime, day, nil),
		table.MustColumn("Active", table.KindBool, true, false),
		table.MustColumn("Mix", table.KindCategory, "Good", "Bad"),
		table.MustColumn("Name", table.KindString, "Ann", "Bob"),
	)

	_, schema, err := quietDetector().Detect(tbl)
	require.NoError(t, err)

	assert.Equal(t, Schema{
		"Age":    TypeNumeric,
		"Opened": TypeDatetime,
		"Active": TypeBoolean,
		"Mix":    TypeCategorical,
		"Name":   TypeString,
	}, schema)
}

func TestDetectUnknownKind(t *testing.T) {
	col := &table.Column{Name: "weird", Kind: table.Kind(99), Values: []any{"x"}}
	_, tag := detectOne(t, col)
	assert.Equal(t, TypeUnknown, tag)
}

func TestDetectCascade(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   SchemaType
		kind   table.Kind
	}{
		{"numeric strings win over low cardinality", []any{"1", "2", "3"}, TypeNumeric, table.KindNumeric},
		{"numeric with blanks", []any{"1.5", "", "nan", nil, "-2"}, TypeNumeric, table.KindNumeric},
		{"mixed numeric scalars", []any{1.5, "2", int64(3)}, TypeNumeric, table.KindNumeric},
		{"dates", []any{"2024-01-02", "2024-03-04", nil}, TypeDatetime, table.KindDatetime},
		{"boolean tokens", []any{"True", "False", "true", "0"}, TypeBoolean, table.KindBool},
		{"boolean with native bools", []any{true, "false", nil}, TypeBoolean, table.KindBool},
		{"unmapped boolean token", []any{"True", "Maybe", "False"}, TypeString, table.KindString},
		{"low cardinality text", []any{"Lawyer", "Doctor", "Lawyer", "Lawyer", "Doctor"}, TypeCategorical, table.KindCategory},
		{"all null", []any{nil, nil, nil}, TypeCategorical, table.KindCategory},
		{"dirty numbers", []any{"$100", "200_", "3,000", "Lawyer"}, TypeNumeric, table.KindNumeric},
		{"free text", []any{"Lawyer", "Doctor", "Engineer"}, TypeString, table.KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, tag := detectOne(t, table.MustColumn("col", table.KindObject, tt.values...))
			assert.Equal(t, tt.want, tag)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, len(tt.values), out.Len())
		})
	}
}

func TestDetectNumericValues(t *testing.T) {
	out, tag := detectOne(t, table.MustColumn("Age", table.KindObject, "23", " 41 ", "", "nan"))
	require.Equal(t, TypeNumeric, tag)
	assert.Equal(t, []any{23.0, 41.0, nil, nil}, out.Values)
}

func TestDetectBooleanValues(t *testing.T) {
	out, tag := detectOne(t, table.MustColumn("Flag", table.KindObject, "True", "False", "true", "0", nil))
	require.Equal(t, TypeBoolean, tag)
	assert.Equal(t, []any{true, false, true, false, nil}, out.Values)
}

func TestDetectCleanupWarns(t *testing.T) {
	var (
		mu       sync.Mutex
		warnings []error
	)
	errors.SetZerologWarnFunc(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w)
	})
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })

	out, tag := detectOne(t, table.MustColumn("Annual_Income", table.KindObject, "$100", "200_", "3,000", "Lawyer"))
	require.Equal(t, TypeNumeric, tag)
	assert.Equal(t, []any{100.0, 200.0, 3000.0, nil}, out.Values)

	require.Len(t, warnings, 1)
	var convErr *errors.DataConversionWarning
	require.True(t, errors.As(warnings[0], &convErr))
	assert.Equal(t, "Annual_Income", convErr.Column)
	assert.Equal(t, "numeric", convErr.ToType)
}

func TestDetectCleanupNeedsMajority(t *testing.T) {
	// two of four rows parse, which is not more than half
	_, tag := detectOne(t, table.MustColumn("col", table.KindObject, "$1", "_2", "Lawyer", "Doctor"))
	assert.Equal(t, TypeString, tag)
}

func TestDetectCategoricalRatioOption(t *testing.T) {
	col := table.MustColumn("Occupation", table.KindObject, "Lawyer", "Doctor", "Lawyer", "Lawyer", "Doctor")
	_, schema, err := quietDetector(WithCategoricalRatio(0.2)).Detect(table.MustNew(col))
	require.NoError(t, err)
	assert.Equal(t, TypeString, schema["Occupation"])
}

func TestDetectDoesNotMutateInput(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("Age", table.KindObject, "23", "41"),
		table.MustColumn("Flag", table.KindObject, "True", "0"),
	)
	before := tbl.Clone()

	adjusted, _, err := quietDetector().Detect(tbl)
	require.NoError(t, err)

	assert.Equal(t, before, tbl)
	assert.NotSame(t, tbl, adjusted)
	assert.Equal(t, tbl.Names(), adjusted.Names())
}

func TestDetectStepPanicFallsThrough(t *testing.T) {
	saved := cascade
	t.Cleanup(func() { cascade = saved })
	cascade = append([]conversion{{
		step: "explode",
		tag:  TypeUnknown,
		convert: func(*table.Column, *options) (*table.Column, error) {
			panic("boom")
		},
	}}, saved...)

	_, tag := detectOne(t, table.MustColumn("Age", table.KindObject, "1", "2"))
	assert.Equal(t, TypeNumeric, tag)
}

func TestDetectLogsEachColumn(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	tbl := table.MustNew(table.MustColumn("Age", table.KindObject, "1", "2"))

	_, _, err := NewSchemaDetector(WithLogger(logger)).Detect(tbl)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("column typed"))
	assert.True(t, logger.ContainsField(log.ColumnKey, "Age"))
	assert.True(t, logger.ContainsField(log.SchemaTypeKey, "numeric"))
	assert.True(t, logger.ContainsField(log.CascadeStepKey, "to_numeric"))
}

func BenchmarkDetect(b *testing.B) {
	values := make([]any, 10000)
	for i := range values {
		if i%3 != 2 {
			values[i] = strconv.Itoa(i) + "_"
		}
	}
	tbl := table.MustNew(table.MustColumn("Annual_Income", table.KindObject, values...))
	logger, _ := log.NewTestLogger(log.LevelError)
	errors.SetWarningHandler(func(error) {})
	detector := NewSchemaDetector(WithLogger(logger))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = detector.Detect(tbl)
	}
}
