// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 列の型推定・グルーピング・学習の各段階で、構造化されたエラー情報を返します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("creditgroup-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DataConversionWarning はデータの型が暗黙的に変換された場合に発生する警告です。
type DataConversionWarning struct {
	Column   string
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	if w.Column != "" {
		return fmt.Sprintf("column '%s': data converted from %s to %s. Reason: %s", w.Column, w.FromType, w.ToType, w.Reason)
	}
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(column, from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{Column: column, FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("creditgroup: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("creditgroup: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("creditgroup: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("creditgroup: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("creditgroup: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("creditgroup: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ColumnError はテーブルの列に関するエラーです（列が存在しない、長さが揃っていない等）。
type ColumnError struct {
	Op     string
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("creditgroup: %s: column '%s': %s", e.Op, e.Column, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "ColumnError")
}

// NewColumnError は新しいColumnErrorを作成し、スタックトレースを付与します。
func NewColumnError(op, column, reason string) error {
	err := &ColumnError{Op: op, Column: column, Reason: reason}
	return errors.WithStack(err)
}

// OverrideError は列グループの手動変更が適用できなかったことを表します。
// 致命的なエラーではなく、呼び出し側はグループ割り当てを変更せずに処理を続けられます。
type OverrideError struct {
	SourceGroup      string
	DestinationGroup string
	Column           string
	Reason           string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("creditgroup: override %s -> %s for '%s' not applied: %s",
		e.SourceGroup, e.DestinationGroup, e.Column, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *OverrideError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source_group", e.SourceGroup).
		Str("destination_group", e.DestinationGroup).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "OverrideError")
}

// NewOverrideError は新しいOverrideErrorを作成し、スタックトレースを付与します。
func NewOverrideError(source, destination, column, reason string) error {
	err := &OverrideError{SourceGroup: source, DestinationGroup: destination, Column: column, Reason: reason}
	return errors.WithStack(err)
}

// NotFoundError は期待したファイルやディレクトリが存在しない場合のエラーです。
// errors.Is(err, ErrNotFound) で判定できます。
type NotFoundError struct {
	Path   string
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("creditgroup: %s does not exist: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("creditgroup: %s does not exist", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError は新しいNotFoundErrorを作成し、スタックトレースを付与します。
func NewNotFoundError(path, reason string) error {
	err := &NotFoundError{Path: path, Reason: reason}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// Join は複数のエラーを1つにまとめます。全てnilの場合はnilを返します。
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrNotFound はファイルやデータセットが見つからない場合のエラーです。
	ErrNotFound = New("not found")

	// ErrConversionFailed は型変換の試行が失敗したことを表します。
	ErrConversionFailed = New("conversion failed")
)
