package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

func sampleGroups() ColumnGroups {
	g := NewColumnGroups()
	g[GroupID] = []string{"Customer_ID", "Name"}
	g[GroupContinuous] = []string{"Age", "Annual_Income"}
	g[GroupBinary] = []string{"Gender"}
	g[GroupCategorical] = []string{"Occupation"}
	return g
}

func TestApplyOverrideRejects(t *testing.T) {
	tests := []struct {
		name string
		o    Override
	}{
		{"unknown source", Override{SourceGroup: "nonexistent", DestinationGroup: "categorical_cols", ColumnName: "Age"}},
		{"unknown destination", Override{SourceGroup: "continuous_cols", DestinationGroup: "nowhere", ColumnName: "Age"}},
		{"column not in source", Override{SourceGroup: "binary_cols", DestinationGroup: "categorical_cols", ColumnName: "Age"}},
		{"column absent", Override{SourceGroup: "continuous_cols", DestinationGroup: "other_cols", ColumnName: "Missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := log.NewTestLogger(log.LevelDebug)
			groups := sampleGroups()

			got, err := ApplyOverride(groups, tt.o, WithLogger(logger))

			require.Error(t, err)
			var overrideErr *errors.OverrideError
			require.True(t, errors.As(err, &overrideErr))
			assert.Equal(t, tt.o.ColumnName, overrideErr.Column)
			assert.Equal(t, sampleGroups(), got)
			assert.Equal(t, sampleGroups(), groups)
			assert.True(t, logger.ContainsMessage("override not applied"))
		})
	}
}

func TestApplyOverrideMovesColumn(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	groups := sampleGroups()
	columns := groups.Columns()

	got, err := ApplyOverride(groups, Override{
		SourceGroup:      "continuous_cols",
		DestinationGroup: "categorical_cols",
		ColumnName:       "Age",
	}, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []string{"Annual_Income"}, got.Get(GroupContinuous))
	assert.Equal(t, []string{"Occupation", "Age"}, got.Get(GroupCategorical))
	assert.NoError(t, got.Validate(columns))
	assert.Equal(t, sampleGroups(), groups, "input must not change")
	assert.True(t, logger.ContainsField(log.DestinationGroupKey, string(GroupCategorical)))
}

func TestApplyOverrideShortNames(t *testing.T) {
	got, err := ApplyOverride(sampleGroups(), Override{SourceGroup: "id", DestinationGroup: "other", ColumnName: "Name"},
		WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer_ID"}, got.Get(GroupID))
	assert.Equal(t, []string{"Name"}, got.Get(GroupOther))
}

func TestApplyOverrideSameGroup(t *testing.T) {
	got, err := ApplyOverride(sampleGroups(), Override{SourceGroup: "binary_cols", DestinationGroup: "binary_cols", ColumnName: "Gender"},
		WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, sampleGroups(), got)
}

func TestApplyOverrideNoDuplicate(t *testing.T) {
	groups := sampleGroups()
	groups[GroupOther] = []string{"Gender"}

	got, err := ApplyOverride(groups, Override{SourceGroup: "binary_cols", DestinationGroup: "other_cols", ColumnName: "Gender"},
		WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Empty(t, got.Get(GroupBinary))
	assert.Equal(t, []string{"Gender"}, got.Get(GroupOther))
}

func TestApplyOverrides(t *testing.T) {
	overrides := []Override{
		{SourceGroup: "continuous_cols", DestinationGroup: "categorical_cols", ColumnName: "Age"},
		{SourceGroup: "bogus", DestinationGroup: "other_cols", ColumnName: "Gender"},
		{SourceGroup: "categorical_cols", DestinationGroup: "other_cols", ColumnName: "Age"},
	}

	got, err := ApplyOverrides(sampleGroups(), overrides, WithLogger(quietLogger()))

	require.Error(t, err)
	var overrideErr *errors.OverrideError
	require.True(t, errors.As(err, &overrideErr))
	assert.Equal(t, "bogus", overrideErr.SourceGroup)

	assert.Equal(t, []string{"Age"}, got.Get(GroupOther))
	assert.Equal(t, []string{"Occupation"}, got.Get(GroupCategorical))
	assert.NoError(t, got.Validate(sampleGroups().Columns()))
}

func TestApplyOverridesAllValid(t *testing.T) {
	got, err := ApplyOverrides(sampleGroups(), nil)
	require.NoError(t, err)
	assert.Equal(t, sampleGroups(), got)
}

func TestParseOverride(t *testing.T) {
	o, err := ParseOverride("continuous_cols:categorical_cols:Num_Bank_Accounts")
	require.NoError(t, err)
	assert.Equal(t, Override{
		SourceGroup:      "continuous_cols",
		DestinationGroup: "categorical_cols",
		ColumnName:       "Num_Bank_Accounts",
	}, o)
	assert.Equal(t, "continuous_cols:categorical_cols:Num_Bank_Accounts", o.String())

	o, err = ParseOverride("other:id:a:b")
	require.NoError(t, err)
	assert.Equal(t, "a:b", o.ColumnName)

	for _, bad := range []string{"", "id", "id:other", "id::col", ":other:col"} {
		_, err := ParseOverride(bad)
		assert.Error(t, err, bad)
	}
}

func quietLogger() log.Logger {
	logger, _ := log.NewTestLogger(log.LevelError)
	return logger
}
