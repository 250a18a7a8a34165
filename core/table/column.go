package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// Column is a named, typed sequence of nullable values.
type Column struct {
	Name string
	Kind Kind

	// Values holds one entry per row; nil is null.
	Values []any

	// Categories holds the sorted labels of a KindCategory column.
	Categories []string
}

// NewColumn validates and normalizes values for kind. Integers are widened
// (float64 for numeric storage, int64 elsewhere) and NaN becomes null.
func NewColumn(name string, kind Kind, values []any) (*Column, error) {
	if name == "" {
		return nil, errors.NewColumnError("NewColumn", name, "empty column name")
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		nv, err := normalize(kind, v)
		if err != nil {
			return nil, errors.NewColumnError("NewColumn", name, fmt.Sprintf("row %d: %v", i, err))
		}
		normalized[i] = nv
	}
	col := &Column{Name: name, Kind: kind, Values: normalized}
	if kind == KindCategory {
		col.Categories = categoriesOf(normalized)
	}
	return col, nil
}

// MustColumn is NewColumn that panics on error. Intended for tests and examples.
func MustColumn(name string, kind Kind, values ...any) *Column {
	col, err := NewColumn(name, kind, values)
	if err != nil {
		panic(err)
	}
	return col
}

// NewNumericColumn builds a numeric column; NaN entries are null.
func NewNumericColumn(name string, values []float64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i] = v
		}
	}
	return &Column{Name: name, Kind: KindNumeric, Values: out}
}

func normalize(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindNumeric:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%T is not numeric", v)
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return f, nil
	case KindDatetime:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%T is not a time.Time", v)
		}
		return t, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%T is not a bool", v)
		}
		return b, nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%T is not a string", v)
		}
		return s, nil
	default:
		return normalizeScalar(v)
	}
}

func normalizeScalar(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, time.Time, int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return normalizeScalar(float64(x))
	case float64:
		if math.IsNaN(x) {
			return nil, nil
		}
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.Values) }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.Values[i] == nil }

// NullCount returns the number of null rows.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// NUnique returns the number of distinct non-null values (the cardinality).
// An integer and a float with the same value are one distinct value.
func (c *Column) NUnique() int {
	seen := make(map[any]struct{})
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		seen[valueKey(v)] = struct{}{}
	}
	return len(seen)
}

type timeKey int64

func valueKey(v any) any {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case time.Time:
		return timeKey(x.UnixNano())
	default:
		return v
	}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	out.Values = append([]any(nil), c.Values...)
	if c.Categories != nil {
		out.Categories = append([]string(nil), c.Categories...)
	}
	return out
}

// Float returns row i as a float64. Null and non-numeric values give NaN.
func (c *Column) Float(i int) float64 {
	if f, ok := toFloat(c.Values[i]); ok {
		return f
	}
	return math.NaN()
}

// Floats returns the column as float64 with NaN for null or non-numeric values.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i := range c.Values {
		out[i] = c.Float(i)
	}
	return out
}

// Text returns the textual form of row i and false when the row is null.
func (c *Column) Text(i int) (string, bool) {
	v := c.Values[i]
	if v == nil {
		return "", false
	}
	return FormatValue(v), true
}

// FormatValue renders a scalar value the way it would appear in a CSV cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func categoriesOf(values []any) []string {
	seen := make(map[string]struct{})
	for _, v := range values {
		if v == nil {
			continue
		}
		seen[FormatValue(v)] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for s := range seen {
		cats = append(cats, s)
	}
	sort.Strings(cats)
	return cats
}

// AsCategory returns a copy of the column stored as a finite category.
func (c *Column) AsCategory() *Column {
	out := c.Clone()
	out.Kind = KindCategory
	out.Categories = categoriesOf(out.Values)
	return out
}
