package preprocessing

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// Group はモデリング用の列グループ名
type Group string

const (
	GroupID          Group = "id_cols"
	GroupDate        Group = "date_cols"
	GroupContinuous  Group = "continuous_cols"
	GroupBinary      Group = "binary_cols"
	GroupCategorical Group = "categorical_cols"
	GroupOther       Group = "other_cols"
)

// AllGroups lists the six groups in reporting order.
var AllGroups = []Group{GroupID, GroupDate, GroupContinuous, GroupBinary, GroupCategorical, GroupOther}

// Valid reports whether g is one of the six recognized groups.
func (g Group) Valid() bool {
	return slices.Contains(AllGroups, g)
}

// ParseGroup accepts both the long form ("id_cols") and the short form ("id").
func ParseGroup(name string) (Group, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if !strings.HasSuffix(n, "_cols") {
		n += "_cols"
	}
	g := Group(n)
	return g, g.Valid()
}

// ColumnGroups maps each group to its member columns in table order.
// Every column of the grouped table appears in exactly one group.
type ColumnGroups map[Group][]string

// NewColumnGroups returns an assignment with all six groups present and empty.
func NewColumnGroups() ColumnGroups {
	g := make(ColumnGroups, len(AllGroups))
	for _, name := range AllGroups {
		g[name] = []string{}
	}
	return g
}

// Get returns the members of group g.
func (g ColumnGroups) Get(group Group) []string {
	return g[group]
}

// GroupOf returns the group holding column.
func (g ColumnGroups) GroupOf(column string) (Group, bool) {
	for _, name := range AllGroups {
		if slices.Contains(g[name], column) {
			return name, true
		}
	}
	return "", false
}

// Columns returns every grouped column, group by group.
func (g ColumnGroups) Columns() []string {
	var out []string
	for _, name := range AllGroups {
		out = append(out, g[name]...)
	}
	return out
}

// Counts returns the number of columns per group.
func (g ColumnGroups) Counts() map[Group]int {
	out := make(map[Group]int, len(AllGroups))
	for _, name := range AllGroups {
		out[name] = len(g[name])
	}
	return out
}

// Clone returns a deep copy.
func (g ColumnGroups) Clone() ColumnGroups {
	out := make(ColumnGroups, len(g))
	for name, cols := range g {
		out[name] = append([]string{}, cols...)
	}
	return out
}

// Validate checks that the assignment partitions exactly the given columns.
func (g ColumnGroups) Validate(columns []string) error {
	seen := make(map[string]Group, len(columns))
	for name, cols := range g {
		if !name.Valid() {
			return errors.NewValueError("ColumnGroups.Validate", fmt.Sprintf("unknown group %q", name))
		}
		for _, c := range cols {
			if prev, dup := seen[c]; dup {
				return errors.NewColumnError("ColumnGroups.Validate", c,
					fmt.Sprintf("assigned to both %s and %s", prev, name))
			}
			seen[c] = name
		}
	}
	for _, c := range columns {
		if _, ok := seen[c]; !ok {
			return errors.NewColumnError("ColumnGroups.Validate", c, "not assigned to any group")
		}
		delete(seen, c)
	}
	if len(seen) > 0 {
		extra := make([]string, 0, len(seen))
		for c := range seen {
			extra = append(extra, c)
		}
		slices.Sort(extra)
		return errors.NewColumnError("ColumnGroups.Validate", extra[0], "not a column of the table")
	}
	return nil
}

// ColumnProfile holds the statistics the grouper decides on.
type ColumnProfile struct {
	Name        string
	Kind        table.Kind
	Cardinality int
	Rows        int
	Group       Group
}

// ColumnGrouper はストレージ型・カーディナリティ・列名から各列のグループを決定する
type ColumnGrouper struct {
	opts options
}

// NewColumnGrouper は新しいColumnGrouperを作成する
func NewColumnGrouper(opts ...Option) *ColumnGrouper {
	return &ColumnGrouper{opts: buildOptions(opts)}
}

// GroupColumns はデフォルト設定で列をグループ分けする
func GroupColumns(tbl *table.Table, opts ...Option) ColumnGroups {
	return NewColumnGrouper(opts...).Group(tbl)
}

// Group は全ての列をちょうど1つのグループに割り当てる。失敗しない。
func (g *ColumnGrouper) Group(tbl *table.Table) ColumnGroups {
	start := time.Now()
	groups := NewColumnGroups()
	for _, p := range g.Profile(tbl) {
		groups[p.Group] = append(groups[p.Group], p.Name)
	}

	logger := g.opts.logger.With(log.OperationKey, log.OperationGroup)
	counts := groups.Counts()
	fields := []any{log.FeaturesKey, tbl.NumCols(), log.DurationMsKey, time.Since(start).Milliseconds()}
	for _, name := range AllGroups {
		fields = append(fields, string(name), counts[name])
	}
	logger.Info("columns grouped", fields...)
	return groups
}

// Profile returns one profile per column in table order.
func (g *ColumnGrouper) Profile(tbl *table.Table) []ColumnProfile {
	rows := tbl.NumRows()
	out := make([]ColumnProfile, 0, tbl.NumCols())
	for _, col := range tbl.Columns() {
		p := ColumnProfile{Name: col.Name, Kind: col.Kind, Cardinality: col.NUnique(), Rows: rows}
		p.Group = g.Classify(p)
		g.opts.logger.Debug("column grouped",
			log.ColumnKey, p.Name,
			log.ColumnKindKey, p.Kind.String(),
			log.CardinalityKey, p.Cardinality,
			log.GroupKey, string(p.Group),
		)
		out = append(out, p)
	}
	return out
}

// Classify applies the grouping rules in precedence order.
func (g *ColumnGrouper) Classify(p ColumnProfile) Group {
	switch {
	case g.isIdentifier(p):
		return GroupID
	case p.Kind == table.KindDatetime:
		return GroupDate
	case p.Cardinality == 2:
		return GroupBinary
	case p.Kind == table.KindNumeric && p.Cardinality > 2:
		return GroupContinuous
	case p.Kind.IsText() && p.Cardinality > 2 && g.belowIdentifierRatio(p):
		return GroupCategorical
	default:
		return GroupOther
	}
}

func (g *ColumnGrouper) isIdentifier(p ColumnProfile) bool {
	name := strings.ToLower(p.Name)
	if (strings.Contains(name, "name") || strings.Contains(name, "id")) && p.Kind != table.KindNumeric {
		return true
	}
	if p.Kind == table.KindDatetime || p.Kind == table.KindNumeric || p.Rows == 0 {
		return false
	}
	return p.Cardinality == p.Rows || float64(p.Cardinality) > g.opts.identifierRatio*float64(p.Rows)
}

func (g *ColumnGrouper) belowIdentifierRatio(p ColumnProfile) bool {
	if p.Rows == 0 {
		return false
	}
	return float64(p.Cardinality) < g.opts.identifierRatio*float64(p.Rows)
}
