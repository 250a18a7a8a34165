package lightgbm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Node represents a single node in a decision tree
type Node struct {
	// Split information (internal nodes)
	SplitFeature int     `json:"split_feature"`
	Threshold    float64 `json:"threshold"`
	DefaultLeft  bool    `json:"default_left"`
	Gain         float64 `json:"gain"`
	LeftChild    int     `json:"left_child"`  // -1 for leaves
	RightChild   int     `json:"right_child"` // -1 for leaves

	// Leaf information
	LeafValue float64 `json:"leaf_value"`
	Count     int     `json:"count"`
	Depth     int     `json:"depth"`
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree represents a single decision tree in the ensemble. Leaf values
// already include the learning rate.
type Tree struct {
	Class int    `json:"class"`
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value reached by features.
func (t *Tree) Predict(features []float64) float64 {
	id := 0
	for {
		node := &t.Nodes[id]
		if node.IsLeaf() {
			return node.LeafValue
		}
		v := features[node.SplitFeature]
		switch {
		case math.IsNaN(v):
			if node.DefaultLeft {
				id = node.LeftChild
			} else {
				id = node.RightChild
			}
		case v <= node.Threshold:
			id = node.LeftChild
		default:
			id = node.RightChild
		}
	}
}

// NumLeaves returns the number of leaves
func (t *Tree) NumLeaves() int {
	n := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

// Model is a trained softmax boosting ensemble. Trees are stored iteration
// by iteration, NumClass trees per iteration.
type Model struct {
	NumClass    int       `json:"num_class"`
	NumFeatures int       `json:"num_features"`
	InitScores  []float64 `json:"init_scores"`
	Trees       []Tree    `json:"trees"`
}

// NumIterations returns the number of boosting rounds in the model.
func (m *Model) NumIterations() int {
	if m.NumClass == 0 {
		return 0
	}
	return len(m.Trees) / m.NumClass
}

// RawScore returns the per-class scores of one sample before softmax.
func (m *Model) RawScore(features []float64) []float64 {
	scores := append([]float64(nil), m.InitScores...)
	for i := range m.Trees {
		tree := &m.Trees[i]
		scores[tree.Class] += tree.Predict(features)
	}
	return scores
}

// PredictProba returns class probabilities (n_samples × NumClass).
func (m *Model) PredictProba(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, m.NumClass, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.SetRow(i, softmax(m.RawScore(row)))
	}
	return out
}

// FeatureImportance returns per-feature importance. importanceType is
// "split" (number of splits) or "gain" (total split gain).
func (m *Model) FeatureImportance(importanceType string) []float64 {
	out := make([]float64, m.NumFeatures)
	for t := range m.Trees {
		for _, node := range m.Trees[t].Nodes {
			if node.IsLeaf() {
				continue
			}
			if importanceType == "gain" {
				out[node.SplitFeature] += node.Gain
			} else {
				out[node.SplitFeature]++
			}
		}
	}
	return out
}
