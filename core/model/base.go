package model

import "github.com/google/uuid"

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全てのモデルの基底となる構造体
// 学習状態と、ログに出力する推定器IDを保持する
type BaseEstimator struct {
	state EstimatorState
	id    string
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset はモデルを初期状態にリセットする。IDは新しく振り直される
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
	e.id = ""
}

// ID は推定器インスタンスの一意なIDを返す（初回呼び出し時に生成）
func (e *BaseEstimator) ID() string {
	if e.id == "" {
		e.id = uuid.NewString()
	}
	return e.id
}
