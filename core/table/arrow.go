package table

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// FromArrow converts an Arrow record batch into a Table.
//
// Integer and floating point arrays become KindNumeric, booleans KindBool,
// utf8 KindString, timestamps and dates KindDatetime and string
// dictionaries KindCategory. Any other type is kept as KindObject holding
// the textual form of each value.
func FromArrow(rec arrow.Record) (*Table, error) {
	n := int(rec.NumRows())
	cols := make([]*Column, 0, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		name := rec.ColumnName(i)
		col, err := fromArrowArray(name, rec.Column(i), n)
		if err != nil {
			return nil, errors.Wrapf(err, "convert arrow column %q", name)
		}
		cols = append(cols, col)
	}
	return New(cols...)
}

type arrowValuer[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64] interface {
	IsNull(i int) bool
	Value(i int) T
}

func numericValues[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64](a arrowValuer[T], n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if a.IsNull(i) {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(a.Value(i))
	}
	return out
}

func fromArrowArray(name string, arr arrow.Array, n int) (*Column, error) {
	switch a := arr.(type) {
	case *array.Int8:
		return NewNumericColumn(name, numericValues[int8](a, n)), nil
	case *array.Int16:
		return NewNumericColumn(name, numericValues[int16](a, n)), nil
	case *array.Int32:
		return NewNumericColumn(name, numericValues[int32](a, n)), nil
	case *array.Int64:
		return NewNumericColumn(name, numericValues[int64](a, n)), nil
	case *array.Uint8:
		return NewNumericColumn(name, numericValues[uint8](a, n)), nil
	case *array.Uint16:
		return NewNumericColumn(name, numericValues[uint16](a, n)), nil
	case *array.Uint32:
		return NewNumericColumn(name, numericValues[uint32](a, n)), nil
	case *array.Uint64:
		return NewNumericColumn(name, numericValues[uint64](a, n)), nil
	case *array.Float32:
		return NewNumericColumn(name, numericValues[float32](a, n)), nil
	case *array.Float64:
		return NewNumericColumn(name, numericValues[float64](a, n)), nil
	case *array.Boolean:
		return collect(name, KindBool, n, a.IsNull, func(i int) any { return a.Value(i) })
	case *array.String:
		return collect(name, KindString, n, a.IsNull, func(i int) any { return a.Value(i) })
	case *array.LargeString:
		return collect(name, KindString, n, a.IsNull, func(i int) any { return a.Value(i) })
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return collect(name, KindDatetime, n, a.IsNull, func(i int) any { return a.Value(i).ToTime(unit).UTC() })
	case *array.Date32:
		return collect(name, KindDatetime, n, a.IsNull, func(i int) any { return a.Value(i).ToTime().UTC() })
	case *array.Date64:
		return collect(name, KindDatetime, n, a.IsNull, func(i int) any { return a.Value(i).ToTime().UTC() })
	case *array.Dictionary:
		dict := a.Dictionary()
		return collect(name, KindCategory, n, a.IsNull, func(i int) any {
			return dict.ValueStr(a.GetValueIndex(i))
		})
	default:
		return collect(name, KindObject, n, arr.IsNull, func(i int) any { return arr.ValueStr(i) })
	}
}

func collect(name string, kind Kind, n int, isNull func(int) bool, value func(int) any) (*Column, error) {
	values := make([]any, n)
	for i := 0; i < n; i++ {
		if isNull(i) {
			continue
		}
		values[i] = value(i)
	}
	col, err := NewColumn(name, kind, values)
	if err != nil {
		return nil, fmt.Errorf("arrow column %s: %w", name, err)
	}
	return col, nil
}
