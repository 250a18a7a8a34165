package preprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// conversion is one attempt of the type cascade. convert returns
// errors.ErrConversionFailed (possibly wrapped) when the column does not
// qualify; any other error or panic is treated the same way.
type conversion struct {
	step    string
	tag     SchemaType
	convert func(col *table.Column, o *options) (*table.Column, error)
}

// cascade is evaluated strictly in order; the first success wins.
var cascade = []conversion{
	{step: "to_numeric", tag: TypeNumeric, convert: coerceNumeric},
	{step: "to_datetime", tag: TypeDatetime, convert: coerceDatetime},
	{step: "to_boolean", tag: TypeBoolean, convert: coerceBoolean},
	{step: "to_category", tag: TypeCategorical, convert: castLowCardinality},
	{step: "clean_numeric", tag: TypeNumeric, convert: cleanNumeric},
	{step: "as_string", tag: TypeString, convert: castString},
}

func (d *SchemaDetector) runCascade(col *table.Column) (*table.Column, SchemaType, string) {
	for _, c := range cascade {
		converted, err := errors.SafeCall(c.step, func() (*table.Column, error) {
			return c.convert(col, &d.opts)
		})
		if err == nil && converted != nil {
			return converted, c.tag, c.step
		}
		if err != nil && !errors.Is(err, errors.ErrConversionFailed) {
			d.opts.logger.Debug("conversion attempt failed",
				log.ColumnKey, col.Name,
				log.CascadeStepKey, c.step,
				log.ErrAttrKey, err,
			)
		}
	}
	return col.Clone(), TypeUnknown, "none"
}

func notConvertible(col *table.Column, reason string) error {
	return errors.Wrapf(errors.ErrConversionFailed, "column %q: %s", col.Name, reason)
}

// coerceNumeric accepts the column when it has at least one non-null value
// and every non-null value parses as a number. Blank strings and "nan"
// become null.
func coerceNumeric(col *table.Column, _ *options) (*table.Column, error) {
	values := make([]any, col.Len())
	nonNull := 0
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		f, ok, isNull := parseNumber(v)
		if isNull {
			continue
		}
		if !ok {
			return nil, notConvertible(col, fmt.Sprintf("row %d is not numeric", i))
		}
		values[i] = f
		nonNull++
	}
	if nonNull == 0 {
		return nil, notConvertible(col, "no numeric values")
	}
	return &table.Column{Name: col.Name, Kind: table.KindNumeric, Values: values}, nil
}

// parseNumber reports the float value of v, whether it parsed, and whether it
// should be read as null.
func parseNumber(v any) (f float64, ok bool, isNull bool) {
	switch x := v.(type) {
	case float64:
		return x, true, false
	case int64:
		return float64(x), true, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, false
		}
		if math.IsNaN(f) {
			return 0, false, true
		}
		return f, true, false
	default:
		return 0, false, false
	}
}

// coerceDatetime accepts the column when it has at least one non-null value
// and every non-null value is a time or a parseable date string.
func coerceDatetime(col *table.Column, _ *options) (*table.Column, error) {
	values := make([]any, col.Len())
	nonNull := 0
	for i, v := range col.Values {
		switch x := v.(type) {
		case nil:
			continue
		case time.Time:
			values[i] = x
		case string:
			s := strings.TrimSpace(x)
			if s == "" {
				continue
			}
			t, err := dateparse.ParseIn(s, time.UTC)
			if err != nil {
				return nil, notConvertible(col, fmt.Sprintf("row %d is not a date", i))
			}
			values[i] = t
		default:
			return nil, notConvertible(col, fmt.Sprintf("row %d has type %T", i, v))
		}
		nonNull++
	}
	if nonNull == 0 {
		return nil, notConvertible(col, "no datetime values")
	}
	return &table.Column{Name: col.Name, Kind: table.KindDatetime, Values: values}, nil
}

var booleanTokens = map[string]bool{
	"True": true, "true": true, "1": true,
	"False": false, "false": false, "0": false,
}

func mapBoolean(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, ok := booleanTokens[x]
		return b, ok
	case float64:
		switch x {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case int64:
		switch x {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}

// coerceBoolean maps the literal tokens and accepts only when every non-null
// value mapped.
func coerceBoolean(col *table.Column, _ *options) (*table.Column, error) {
	values := make([]any, col.Len())
	nonNull := 0
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		b, ok := mapBoolean(v)
		if !ok {
			return nil, notConvertible(col, fmt.Sprintf("row %d is not a boolean token", i))
		}
		values[i] = b
		nonNull++
	}
	if nonNull == 0 {
		return nil, notConvertible(col, "no boolean values")
	}
	return &table.Column{Name: col.Name, Kind: table.KindBool, Values: values}, nil
}

// castLowCardinality casts to a category when the distinct count is below
// categoricalRatio of the column length. An all-null column has cardinality
// zero and qualifies.
func castLowCardinality(col *table.Column, o *options) (*table.Column, error) {
	if float64(col.NUnique()) < o.categoricalRatio*float64(col.Len()) {
		return col.AsCategory(), nil
	}
	return nil, notConvertible(col, "cardinality too high for a category")
}

var nonNumericChars = regexp.MustCompile(`[^0-9.\-]`)

// cleanNumeric strips everything but digits, '.' and '-' from the textual
// form of each value and reparses. Accepted when more than cleanupRatio of
// the rows parse.
func cleanNumeric(col *table.Column, o *options) (*table.Column, error) {
	values := make([]any, col.Len())
	parsed, lost := 0, 0
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		cleaned := nonNumericChars.ReplaceAllString(table.FormatValue(v), "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if cleaned == "" || err != nil || math.IsNaN(f) {
			lost++
			continue
		}
		values[i] = f
		parsed++
	}
	if float64(parsed) <= o.cleanupRatio*float64(col.Len()) {
		return nil, notConvertible(col, fmt.Sprintf("only %d of %d rows numeric after cleanup", parsed, col.Len()))
	}
	if lost > 0 {
		errors.Warn(errors.NewDataConversionWarning(col.Name, col.Kind.String(), string(TypeNumeric),
			fmt.Sprintf("%d values could not be parsed after cleanup and were set to null", lost)))
	}
	return &table.Column{Name: col.Name, Kind: table.KindNumeric, Values: values}, nil
}

// castString renders every non-null value as text.
func castString(col *table.Column, _ *options) (*table.Column, error) {
	values := make([]any, col.Len())
	for i, v := range col.Values {
		if v != nil {
			values[i] = table.FormatValue(v)
		}
	}
	return &table.Column{Name: col.Name, Kind: table.KindString, Values: values}, nil
}
