package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
)

// LabelEncoder は文字列ラベルを 0..n_classes-1 の整数コードに変換する
// クラスは辞書順に並べられる。null は NaN にエンコードされる
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit は列に現れる非nullの値をクラスとして学習する
func (e *LabelEncoder) Fit(col *table.Column) error {
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		if s, ok := col.Text(i); ok {
			seen[s] = struct{}{}
		}
	}
	e.Classes = make([]string, 0, len(seen))
	for s := range seen {
		e.Classes = append(e.Classes, s)
	}
	sort.Strings(e.Classes)
	e.index = make(map[string]int, len(e.Classes))
	for i, s := range e.Classes {
		e.index[s] = i
	}
	return nil
}

// Transform は列をコードに変換する。未知のラベルはエラーになる
func (e *LabelEncoder) Transform(col *table.Column) ([]float64, error) {
	if e.index == nil {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	out := make([]float64, col.Len())
	for i := range out {
		s, ok := col.Text(i)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		code, known := e.index[s]
		if !known {
			return nil, errors.NewColumnError("LabelEncoder.Transform", col.Name,
				fmt.Sprintf("row %d: unseen label %q", i, s))
		}
		out[i] = float64(code)
	}
	return out, nil
}

// FitTransform はFitとTransformを続けて実行する
func (e *LabelEncoder) FitTransform(col *table.Column) ([]float64, error) {
	if err := e.Fit(col); err != nil {
		return nil, err
	}
	return e.Transform(col)
}

// InverseTransform はコードを元のラベルに戻す
func (e *LabelEncoder) InverseTransform(codes []float64) ([]string, error) {
	out := make([]string, len(codes))
	for i, c := range codes {
		idx := int(c)
		if math.IsNaN(c) || float64(idx) != c || idx < 0 || idx >= len(e.Classes) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform", fmt.Sprintf("invalid code %v at %d", c, i))
		}
		out[i] = e.Classes[idx]
	}
	return out, nil
}
