package table

import (
	"fmt"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// Table is an ordered collection of equally long, uniquely named columns.
// Tables are treated as immutable values: operations that change columns
// return a new Table.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a table from columns. Column names must be unique and all
// columns must have the same length.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, errors.NewValueError("table.New", fmt.Sprintf("column %d is nil", i))
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, errors.NewColumnError("table.New", col.Name, "duplicate column name")
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, errors.NewDimensionError("table.New", t.rows, col.Len(), 0)
		}
		t.index[col.Name] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for tests and examples.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.columns) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.columns[i] }

// Columns returns the columns in table order. The slice is a copy; the
// columns themselves are shared.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Clone()
	}
	return MustNew(cols...)
}

// WithColumn returns a new table where col replaces the column of the same
// name, or is appended when no such column exists.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	cols := t.Columns()
	if i, ok := t.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, errors.NewColumnError("table.Select", name, "no such column")
		}
		cols = append(cols, col)
	}
	return New(cols...)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	cols := make([]*Column, 0, len(t.columns))
	for _, c := range t.columns {
		if !skip[c.Name] {
			cols = append(cols, c)
		}
	}
	return MustNew(cols...)
}
