// Package lightgbm provides a pure Go histogram gradient boosting classifier
// following LightGBM's training algorithm.
//
// Features are bucketed into at most MaxBin histogram bins. Trees grow
// leaf-wise: at every step the leaf with the largest split gain is split,
// until NumLeaves is reached or no split improves the objective. Multiclass
// problems use the softmax objective with one tree per class per iteration.
// Missing values (NaN) are routed to the left child.
//
// # scikit-learn Compatible API
//
//	clf := lightgbm.NewLGBMClassifier().
//	    WithNumIterations(100).
//	    WithLearningRate(0.1)
//	if err := clf.Fit(XTrain, yTrain); err != nil {
//	    return err
//	}
//	predictions, _ := clf.Predict(XTest)
//	accuracy, _ := clf.Score(XTest, yTest)
//
// Labels may be any float values; they are mapped to class indices in
// ascending order and Predict returns the original label values.
package lightgbm
