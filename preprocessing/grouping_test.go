package preprocessing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

func quietGrouper(opts ...Option) *ColumnGrouper {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewColumnGrouper(append([]Option{WithLogger(logger)}, opts...)...)
}

func TestGroupAgeGender(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("Age", table.KindNumeric, 25, 30, 35, 40),
		table.MustColumn("Gender", table.KindString, "M", "F", "M", "F"),
	)

	groups := quietGrouper().Group(tbl)

	assert.Equal(t, []string{"Age"}, groups.Get(GroupContinuous))
	assert.Equal(t, []string{"Gender"}, groups.Get(GroupBinary))
	for _, g := range []Group{GroupID, GroupDate, GroupCategorical, GroupOther} {
		assert.Empty(t, groups.Get(g), g)
	}
}

func TestGroupPrecedence(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		col  *table.Column
		want Group
	}{
		{"identifier name beats uniqueness", table.MustColumn("Customer_ID", table.KindString, "a1", "a2", "a3", "a4"), GroupID},
		{"name rule on low cardinality", table.MustColumn("Name", table.KindObject, "Ann", "Ann", "Bob", "Bob"), GroupID},
		{"numeric id is not an identifier", table.MustColumn("Customer_ID", table.KindNumeric, 1, 2, 3, 4), GroupContinuous},
		{"unique text is an identifier", table.MustColumn("SSN", table.KindObject, "1", "2", "3", "4"), GroupID},
		{"two-valued datetime is a date", table.MustColumn("Month", table.KindDatetime, jan, feb, jan, feb), GroupDate},
		{"unique datetime is a date", table.MustColumn("Month", table.KindDatetime, jan, feb, jan.AddDate(0, 2, 0), nil), GroupDate},
		{"two-valued bool", table.MustColumn("Flag", table.KindBool, true, false, true, true), GroupBinary},
		{"two-valued numeric", table.MustColumn("Loans", table.KindNumeric, 0, 1, 0, 1), GroupBinary},
		{"constant bool", table.MustColumn("Flag", table.KindBool, true, true, true, true), GroupOther},
		{"constant numeric", table.MustColumn("Loans", table.KindNumeric, 3, 3, 3, 3), GroupOther},
		{"name rule on datetime", table.MustColumn("Paid", table.KindDatetime, jan, feb, jan, feb), GroupID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := quietGrouper().Group(table.MustNew(tt.col))
			got, ok := groups.GroupOf(tt.col.Name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupCategorical(t *testing.T) {
	values := make([]any, 20)
	occupations := []string{"Lawyer", "Doctor", "Engineer"}
	for i := range values {
		values[i] = occupations[i%3]
	}
	tbl := table.MustNew(
		table.MustColumn("Occupation", table.KindObject, values...),
		table.MustColumn("Occupation_cat", table.KindCategory, values...),
	)

	groups := quietGrouper().Group(tbl)
	assert.Equal(t, []string{"Occupation", "Occupation_cat"}, groups.Get(GroupCategorical))
}

func TestGroupIdentifierRatio(t *testing.T) {
	values := make([]any, 20)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}
	values[19] = "v0" // 19 distinct of 20 rows

	tbl := table.MustNew(table.MustColumn("Code", table.KindObject, values...))

	// 19 > 0.95*20 is false and 19 < 19 is false
	groups := quietGrouper().Group(tbl)
	assert.Equal(t, []string{"Code"}, groups.Get(GroupOther))

	groups = quietGrouper(WithIdentifierRatio(0.9)).Group(tbl)
	assert.Equal(t, []string{"Code"}, groups.Get(GroupID))
}

func TestGroupEmptyTable(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("Occupation", table.KindObject),
		table.MustColumn("Age", table.KindNumeric),
	)

	groups := quietGrouper().Group(tbl)
	assert.Equal(t, []string{"Occupation", "Age"}, groups.Get(GroupOther))
	assert.NoError(t, groups.Validate(tbl.Names()))
}

func TestGroupPartitionInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []table.Kind{table.KindObject, table.KindNumeric, table.KindBool, table.KindString, table.KindCategory, table.KindDatetime}
	names := []string{"Customer_ID", "Name", "Age", "Occupation", "Month", "Flag", "Score"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 50; trial++ {
		rows := rng.Intn(12)
		ncols := 1 + rng.Intn(len(names))
		cols := make([]*table.Column, 0, ncols)
		for c := 0; c < ncols; c++ {
			kind := kinds[rng.Intn(len(kinds))]
			card := 1 + rng.Intn(rows+1)
			values := make([]any, rows)
			for r := range values {
				if rng.Intn(6) == 0 {
					continue
				}
				v := rng.Intn(card)
				switch kind {
				case table.KindNumeric:
					values[r] = float64(v)
				case table.KindBool:
					values[r] = v%2 == 0
				case table.KindDatetime:
					values[r] = base.AddDate(0, 0, v)
				default:
					values[r] = fmt.Sprintf("s%d", v)
				}
			}
			cols = append(cols, table.MustColumn(names[c], kind, values...))
		}
		tbl := table.MustNew(cols...)

		groups := quietGrouper().Group(tbl)
		require.NoError(t, groups.Validate(tbl.Names()), "trial %d", trial)
		assert.ElementsMatch(t, tbl.Names(), groups.Columns())
	}
}

func TestProfile(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("Gender", table.KindObject, "M", nil, "F", "M"))
	profiles := quietGrouper().Profile(tbl)
	require.Len(t, profiles, 1)
	assert.Equal(t, ColumnProfile{
		Name:        "Gender",
		Kind:        table.KindObject,
		Cardinality: 2,
		Rows:        4,
		Group:       GroupBinary,
	}, profiles[0])
}

func TestParseGroup(t *testing.T) {
	tests := []struct {
		in   string
		want Group
		ok   bool
	}{
		{"id_cols", GroupID, true},
		{"id", GroupID, true},
		{" Categorical ", GroupCategorical, true},
		{"other_cols", GroupOther, true},
		{"nonexistent", "nonexistent_cols", false},
	}
	for _, tt := range tests {
		got, ok := ParseGroup(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestColumnGroupsValidate(t *testing.T) {
	groups := NewColumnGroups()
	groups[GroupID] = []string{"a"}
	groups[GroupOther] = []string{"b"}
	assert.NoError(t, groups.Validate([]string{"a", "b"}))

	dup := groups.Clone()
	dup[GroupBinary] = []string{"a"}
	assert.Error(t, dup.Validate([]string{"a", "b"}))

	assert.Error(t, groups.Validate([]string{"a", "b", "c"}))
	assert.Error(t, groups.Validate([]string{"a"}))
}

func TestGroupLogsCounts(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	tbl := table.MustNew(table.MustColumn("Age", table.KindNumeric, 1, 2, 3))

	NewColumnGrouper(WithLogger(logger)).Group(tbl)

	assert.True(t, logger.ContainsMessage("columns grouped"))
	assert.True(t, logger.ContainsField(string(GroupContinuous), float64(1)))
	assert.True(t, logger.ContainsField(log.GroupKey, string(GroupContinuous)))
}
