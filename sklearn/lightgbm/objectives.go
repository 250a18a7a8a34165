package lightgbm

import "math"

// softmax computes probabilities with the max logit subtracted for stability.
func softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// multiclassLogLoss is the softmax cross-entropy objective.
type multiclassLogLoss struct {
	numClass int
}

// initScores returns log class priors, LightGBM's boost_from_average for
// multiclass.
func (o *multiclassLogLoss) initScores(labels []int) []float64 {
	counts := make([]float64, o.numClass)
	for _, l := range labels {
		counts[l]++
	}
	out := make([]float64, o.numClass)
	for k, c := range counts {
		out[k] = math.Log(math.Max(c/float64(len(labels)), 1e-15))
	}
	return out
}

// gradients fills grad and hess (row-major, numClass per sample) from the
// current scores: g = p - y, h = p(1 - p).
func (o *multiclassLogLoss) gradients(labels []int, scores, grad, hess []float64) {
	k := o.numClass
	for i, label := range labels {
		p := softmax(scores[i*k : (i+1)*k])
		for c := 0; c < k; c++ {
			y := 0.0
			if c == label {
				y = 1
			}
			grad[i*k+c] = p[c] - y
			hess[i*k+c] = math.Max(p[c]*(1-p[c]), 1e-16)
		}
	}
}

// loss returns the mean cross-entropy.
func (o *multiclassLogLoss) loss(labels []int, scores []float64) float64 {
	k := o.numClass
	sum := 0.0
	for i, label := range labels {
		p := softmax(scores[i*k : (i+1)*k])
		sum -= math.Log(math.Max(p[label], 1e-15))
	}
	return sum / float64(len(labels))
}
