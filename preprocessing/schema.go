// Package preprocessing infers column types, groups columns for modelling,
// fills missing values and encodes labels.
package preprocessing

import (
	"time"

	"github.com/YuminosukeSato/creditgroup/core/table"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// SchemaType は列の意味的な型を表す
type SchemaType string

const (
	TypeNumeric     SchemaType = "numeric"
	TypeDatetime    SchemaType = "datetime"
	TypeBoolean     SchemaType = "boolean"
	TypeCategorical SchemaType = "categorical"
	TypeString      SchemaType = "string"
	TypeUnknown     SchemaType = "unknown"
)

// Schema は列名から推定された型への対応
type Schema map[string]SchemaType

// SchemaDetector は列ごとに意味的な型を推定し、必要に応じて値を変換する
type SchemaDetector struct {
	opts options
}

// NewSchemaDetector は新しいSchemaDetectorを作成する
//
// 使用例:
//
//	detector := preprocessing.NewSchemaDetector(preprocessing.WithCategoricalRatio(0.3))
//	adjusted, schema, err := detector.Detect(tbl)
func NewSchemaDetector(opts ...Option) *SchemaDetector {
	return &SchemaDetector{opts: buildOptions(opts)}
}

// DetectSchema はデフォルト設定で型推定を行う
func DetectSchema(tbl *table.Table, opts ...Option) (*table.Table, Schema, error) {
	return NewSchemaDetector(opts...).Detect(tbl)
}

// Detect は各列の型を推定し、変換後のテーブルとスキーマを返す
//
// 既に型の決まっている列（数値、日時、真偽値、カテゴリ、文字列）はそのまま
// タグ付けされる。型の曖昧な列は変換カスケードを順に試し、最初に成功した
// 変換を採用する。入力テーブルは変更されない。
func (d *SchemaDetector) Detect(tbl *table.Table) (*table.Table, Schema, error) {
	start := time.Now()
	logger := d.opts.logger.With(log.OperationKey, log.OperationDetect)

	schema := make(Schema, tbl.NumCols())
	cols := make([]*table.Column, 0, tbl.NumCols())
	for _, col := range tbl.Columns() {
		converted, tag, step := d.detectColumn(col)
		schema[col.Name] = tag
		cols = append(cols, converted)
		logger.Debug("column typed",
			log.ColumnKey, col.Name,
			log.ColumnKindKey, col.Kind.String(),
			log.SchemaTypeKey, string(tag),
			log.CascadeStepKey, step,
		)
	}

	adjusted, err := table.New(cols...)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("schema detected",
		log.SamplesKey, tbl.NumRows(),
		log.FeaturesKey, tbl.NumCols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return adjusted, schema, nil
}

// detectColumn returns the (possibly converted) column, its tag and the name
// of the rule that decided it.
func (d *SchemaDetector) detectColumn(col *table.Column) (*table.Column, SchemaType, string) {
	switch col.Kind {
	case table.KindNumeric:
		return col.Clone(), TypeNumeric, "storage"
	case table.KindDatetime:
		return col.Clone(), TypeDatetime, "storage"
	case table.KindBool:
		return col.Clone(), TypeBoolean, "storage"
	case table.KindCategory:
		return col.Clone(), TypeCategorical, "storage"
	case table.KindString:
		if allStrings(col) {
			return col.Clone(), TypeString, "storage"
		}
		return d.runCascade(col)
	case table.KindObject:
		return d.runCascade(col)
	default:
		return col.Clone(), TypeUnknown, "storage"
	}
}

func allStrings(col *table.Column) bool {
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}
