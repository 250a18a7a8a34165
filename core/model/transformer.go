package model

import "gonum.org/v1/gonum/mat"

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Imputer は欠損値（NaN）を補完するTransformer
type Imputer interface {
	Transformer

	// Strategy は補完戦略の名前を返す
	Strategy() string
}
