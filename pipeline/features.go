package pipeline

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/preprocessing"
)

// FeatureGroups are the groups whose columns become model inputs.
var FeatureGroups = []preprocessing.Group{
	preprocessing.GroupContinuous,
	preprocessing.GroupBinary,
	preprocessing.GroupCategorical,
}

// FeatureSet is the numeric design matrix built from a grouped table.
type FeatureSet struct {
	// Names are the feature columns in table order.
	Names []string
	// X has one row per table row; missing values are NaN.
	X *mat.Dense
	// Encoders holds the label encoder of every text feature.
	Encoders map[string]*preprocessing.LabelEncoder
}

// BuildFeatures encodes the feature groups of tbl as floats. The target
// column is never a feature. Text columns are label encoded, booleans
// become 0/1 and datetimes Unix seconds.
func BuildFeatures(tbl *table.Table, groups preprocessing.ColumnGroups, target string) (*FeatureSet, error) {
	selected := make(map[string]bool)
	for _, g := range FeatureGroups {
		for _, name := range groups.Get(g) {
			selected[name] = true
		}
	}
	delete(selected, target)

	fs := &FeatureSet{Encoders: make(map[string]*preprocessing.LabelEncoder)}
	var encoded [][]float64
	for _, col := range tbl.Columns() {
		if !selected[col.Name] {
			continue
		}
		values, enc, err := encodeColumn(col)
		if err != nil {
			return nil, err
		}
		if enc != nil {
			fs.Encoders[col.Name] = enc
		}
		fs.Names = append(fs.Names, col.Name)
		encoded = append(encoded, values)
	}
	if len(fs.Names) == 0 {
		return nil, errors.NewValueError("BuildFeatures", "no continuous, binary or categorical columns to train on")
	}

	rows := tbl.NumRows()
	if rows == 0 {
		return nil, errors.NewModelError("BuildFeatures", "empty data", errors.ErrEmptyData)
	}
	fs.X = mat.NewDense(rows, len(fs.Names), nil)
	for j, values := range encoded {
		fs.X.SetCol(j, values)
	}
	return fs, nil
}

func encodeColumn(col *table.Column) ([]float64, *preprocessing.LabelEncoder, error) {
	switch col.Kind {
	case table.KindNumeric:
		return col.Floats(), nil, nil
	case table.KindBool:
		out := make([]float64, col.Len())
		for i, v := range col.Values {
			switch v {
			case true:
				out[i] = 1
			case false:
				out[i] = 0
			default:
				out[i] = math.NaN()
			}
		}
		return out, nil, nil
	case table.KindDatetime:
		out := make([]float64, col.Len())
		for i, v := range col.Values {
			if t, ok := v.(time.Time); ok {
				out[i] = float64(t.Unix())
			} else {
				out[i] = math.NaN()
			}
		}
		return out, nil, nil
	default:
		enc := preprocessing.NewLabelEncoder()
		out, err := enc.FitTransform(col)
		if err != nil {
			return nil, nil, err
		}
		return out, enc, nil
	}
}

// EncodeTarget label encodes the target column. Null targets are NaN.
func EncodeTarget(col *table.Column) (*mat.VecDense, *preprocessing.LabelEncoder, error) {
	enc := preprocessing.NewLabelEncoder()
	codes, err := enc.FitTransform(col)
	if err != nil {
		return nil, nil, err
	}
	if len(enc.Classes) < 2 {
		return nil, nil, errors.NewColumnError("EncodeTarget", col.Name, "target needs at least 2 classes")
	}
	return mat.NewVecDense(len(codes), codes), enc, nil
}

// labelledRows returns the rows of X and y whose label is present.
func labelledRows(X *mat.Dense, y *mat.VecDense) (*mat.Dense, *mat.VecDense, int) {
	n, c := X.Dims()
	keep := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(y.AtVec(i)) {
			keep = append(keep, i)
		}
	}
	if len(keep) == n {
		return X, y, 0
	}
	if len(keep) == 0 {
		return nil, nil, n
	}
	outX := mat.NewDense(len(keep), c, nil)
	outY := mat.NewVecDense(len(keep), nil)
	for i, r := range keep {
		outX.SetRow(i, X.RawRowView(r))
		outY.SetVec(i, y.AtVec(r))
	}
	return outX, outY, n - len(keep)
}
