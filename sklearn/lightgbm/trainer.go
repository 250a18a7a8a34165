package lightgbm

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/creditgroup/core/parallel"
	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// TrainingParams contains all training hyperparameters
type TrainingParams struct {
	NumIterations int     `json:"num_iterations"`
	LearningRate  float64 `json:"learning_rate"`
	NumLeaves     int     `json:"num_leaves"`
	MaxDepth      int     `json:"max_depth"` // <= 0 means no limit
	MinDataInLeaf int     `json:"min_data_in_leaf"`

	// Regularization
	Lambda              float64 `json:"lambda_l2"`
	MinSumHessianInLeaf float64 `json:"min_sum_hessian_in_leaf"`
	MinGainToSplit      float64 `json:"min_gain_to_split"`

	MaxBin   int `json:"max_bin"`
	NumClass int `json:"num_class"`
}

// DefaultTrainingParams returns LightGBM's defaults.
func DefaultTrainingParams() TrainingParams {
	return TrainingParams{
		NumIterations:       100,
		LearningRate:        0.1,
		NumLeaves:           31,
		MaxDepth:            -1,
		MinDataInLeaf:       20,
		MinSumHessianInLeaf: 1e-3,
		MaxBin:              255,
	}
}

// Validate checks parameter ranges.
func (p TrainingParams) Validate() error {
	switch {
	case p.NumIterations < 1:
		return errors.NewValidationError("num_iterations", "must be >= 1", p.NumIterations)
	case !(p.LearningRate > 0):
		return errors.NewValidationError("learning_rate", "must be > 0", p.LearningRate)
	case p.NumLeaves < 2:
		return errors.NewValidationError("num_leaves", "must be >= 2", p.NumLeaves)
	case p.MinDataInLeaf < 1:
		return errors.NewValidationError("min_data_in_leaf", "must be >= 1", p.MinDataInLeaf)
	case p.Lambda < 0:
		return errors.NewValidationError("lambda_l2", "must be >= 0", p.Lambda)
	case p.MaxBin < 2 || p.MaxBin > math.MaxUint16-1:
		return errors.NewValidationError("max_bin", "must be in [2, 65534]", p.MaxBin)
	case p.NumClass < 2:
		return errors.NewValidationError("num_class", "must be >= 2", p.NumClass)
	}
	return nil
}

// featureParallelThreshold is the feature count above which histograms
// are built concurrently.
const featureParallelThreshold = 4

// Trainer implements the LightGBM training algorithm
type Trainer struct {
	params    TrainingParams
	objective *multiclassLogLoss
	logger    log.Logger

	data   *binnedData
	labels []int
	scores []float64
	grad   []float64
	hess   []float64
}

// NewTrainer creates a new LightGBM trainer
func NewTrainer(params TrainingParams, logger log.Logger) *Trainer {
	if logger == nil {
		logger = log.GetLoggerWithName("lightgbm.trainer")
	}
	return &Trainer{
		params:    params,
		objective: &multiclassLogLoss{numClass: params.NumClass},
		logger:    logger,
	}
}

// Fit trains on X with labels that are class indices in [0, NumClass).
// It stops early with ctx.Err() when ctx is cancelled between iterations.
func (t *Trainer) Fit(ctx context.Context, X mat.Matrix, labels []int) (*Model, error) {
	if err := t.params.Validate(); err != nil {
		return nil, err
	}
	n, nFeatures := X.Dims()
	if n != len(labels) {
		return nil, errors.NewDimensionError("Trainer.Fit", n, len(labels), 0)
	}
	k := t.params.NumClass
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, errors.NewValueError("Trainer.Fit", fmt.Sprintf("label %d at row %d out of range", l, i))
		}
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}
	t.data = newBinnedData(rows, nFeatures, t.params.MaxBin)
	t.labels = labels

	model := &Model{
		NumClass:    k,
		NumFeatures: nFeatures,
		InitScores:  t.objective.initScores(labels),
	}
	t.scores = make([]float64, n*k)
	for i := 0; i < n; i++ {
		copy(t.scores[i*k:(i+1)*k], model.InitScores)
	}
	t.grad = make([]float64, n*k)
	t.hess = make([]float64, n*k)

	for iter := 0; iter < t.params.NumIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.objective.gradients(labels, t.scores, t.grad, t.hess)
		grew := false
		for class := 0; class < k; class++ {
			tree := t.buildTree(class)
			if len(tree.Nodes) > 1 {
				grew = true
			}
			model.Trees = append(model.Trees, tree)
		}
		if iter%10 == 0 || iter == t.params.NumIterations-1 {
			t.logger.Debug("boosting iteration",
				log.IterationKey, iter,
				log.LossKey, t.objective.loss(labels, t.scores),
			)
		}
		if !grew {
			// LightGBM stops when no tree can split any more.
			t.logger.Debug("no further splits", log.IterationKey, iter)
			break
		}
	}
	return model, nil
}

type leafState struct {
	node    int
	indices []int
	hist    histogram
	sumGrad float64
	sumHess float64
	best    splitInfo
}

type splitInfo struct {
	feature    int
	bin        int
	gain       float64
	leftGrad   float64
	leftHess   float64
	leftCount  int
	rightGrad  float64
	rightHess  float64
	rightCount int
}

func (s splitInfo) valid() bool { return s.feature >= 0 }

// buildTree grows one tree for class leaf-wise and adds its shrunk leaf
// values to the training scores.
func (t *Trainer) buildTree(class int) Tree {
	k := t.params.NumClass
	n := t.data.nRows
	root := &leafState{node: 0, indices: make([]int, n)}
	for i := range root.indices {
		root.indices[i] = i
		root.sumGrad += t.grad[i*k+class]
		root.sumHess += t.hess[i*k+class]
	}
	root.hist = t.buildHistogram(root.indices, class)

	tree := Tree{Class: class, Nodes: []Node{{LeftChild: -1, RightChild: -1, Count: n}}}
	root.best = t.findBestSplit(root, 0)
	leaves := []*leafState{root}

	for len(leaves) < t.params.NumLeaves {
		bestIdx := -1
		for i, l := range leaves {
			if l.best.valid() && (bestIdx < 0 || l.best.gain > leaves[bestIdx].best.gain) {
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		leaf := leaves[bestIdx]
		left, right := t.split(&tree, leaf, class)
		leaves[bestIdx] = left
		leaves = append(leaves, right)
	}

	for _, l := range leaves {
		value := -l.sumGrad / (l.sumHess + t.params.Lambda) * t.params.LearningRate
		tree.Nodes[l.node].LeafValue = value
		for _, idx := range l.indices {
			t.scores[idx*k+class] += value
		}
	}
	return tree
}

// split turns leaf into an internal node and returns the two new leaves.
func (t *Trainer) split(tree *Tree, leaf *leafState, class int) (*leafState, *leafState) {
	s := leaf.best
	mapper := t.data.mappers[s.feature]
	bins := t.data.bins[s.feature]
	missing := mapper.missingBin()

	var leftIdx, rightIdx []int
	for _, idx := range leaf.indices {
		b := int(bins[idx])
		if b <= s.bin || b == missing {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}

	depth := tree.Nodes[leaf.node].Depth + 1
	leftNode := len(tree.Nodes)
	rightNode := leftNode + 1
	tree.Nodes = append(tree.Nodes,
		Node{LeftChild: -1, RightChild: -1, Count: len(leftIdx), Depth: depth},
		Node{LeftChild: -1, RightChild: -1, Count: len(rightIdx), Depth: depth},
	)
	parent := &tree.Nodes[leaf.node]
	parent.SplitFeature = s.feature
	parent.Threshold = mapper.threshold(s.bin)
	parent.DefaultLeft = true
	parent.Gain = s.gain
	parent.LeftChild = leftNode
	parent.RightChild = rightNode

	left := &leafState{node: leftNode, indices: leftIdx, sumGrad: s.leftGrad, sumHess: s.leftHess}
	right := &leafState{node: rightNode, indices: rightIdx, sumGrad: s.rightGrad, sumHess: s.rightHess}

	// Build the smaller child's histogram and derive the other by subtraction.
	small, large := left, right
	if len(rightIdx) < len(leftIdx) {
		small, large = right, left
	}
	small.hist = t.buildHistogram(small.indices, class)
	large.hist = t.data.newHistogram()
	large.hist.subtract(leaf.hist, small.hist)
	leaf.hist = nil

	left.best = t.findBestSplit(left, depth)
	right.best = t.findBestSplit(right, depth)
	return left, right
}

func (t *Trainer) buildHistogram(indices []int, class int) histogram {
	k := t.params.NumClass
	h := t.data.newHistogram()
	parallel.ParallelizeWithThreshold(len(h), featureParallelThreshold, func(start, end int) {
		for f := start; f < end; f++ {
			bins := t.data.bins[f]
			hf := h[f]
			for _, idx := range indices {
				b := &hf[bins[idx]]
				b.grad += t.grad[idx*k+class]
				b.hess += t.hess[idx*k+class]
				b.count++
			}
		}
	})
	return h
}

func (t *Trainer) findBestSplit(leaf *leafState, depth int) splitInfo {
	best := splitInfo{feature: -1}
	if t.params.MaxDepth > 0 && depth >= t.params.MaxDepth {
		return best
	}
	if len(leaf.indices) < 2*t.params.MinDataInLeaf {
		return best
	}
	lambda := t.params.Lambda
	parentScore := leaf.sumGrad * leaf.sumGrad / (leaf.sumHess + lambda)
	total := len(leaf.indices)

	for f, hf := range leaf.hist {
		nb := t.data.mappers[f].numBins()
		miss := hf[nb]
		leftGrad, leftHess, leftCount := miss.grad, miss.hess, miss.count
		for b := 0; b < nb-1; b++ {
			leftGrad += hf[b].grad
			leftHess += hf[b].hess
			leftCount += hf[b].count
			rightCount := total - leftCount
			if leftCount < t.params.MinDataInLeaf || rightCount < t.params.MinDataInLeaf {
				continue
			}
			rightGrad := leaf.sumGrad - leftGrad
			rightHess := leaf.sumHess - leftHess
			if leftHess < t.params.MinSumHessianInLeaf || rightHess < t.params.MinSumHessianInLeaf {
				continue
			}
			gain := 0.5 * (leftGrad*leftGrad/(leftHess+lambda) + rightGrad*rightGrad/(rightHess+lambda) - parentScore)
			if gain <= t.params.MinGainToSplit || gain <= best.gain {
				continue
			}
			best = splitInfo{
				feature: f, bin: b, gain: gain,
				leftGrad: leftGrad, leftHess: leftHess, leftCount: leftCount,
				rightGrad: rightGrad, rightHess: rightHess, rightCount: rightCount,
			}
		}
	}
	return best
}

// sortedClasses returns the distinct labels in ascending order.
func sortedClasses(y []float64) []float64 {
	seen := make(map[float64]struct{})
	for _, v := range y {
		seen[v] = struct{}{}
	}
	out := make([]float64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
