// Package loss provides the mean cross-entropy loss the optimizer minimizes.
package loss

import (
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// Epsilon keeps the logarithms finite when an output saturates at 0 or 1.
const Epsilon = 1e-15

// CrossEntropy is the binary cross-entropy averaged over the output neurons.
type CrossEntropy struct{}

// Forward computes (1/n) * sum(-t*ln(eps+a) - (1-t)*ln(eps+1-a))
func (CrossEntropy) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("CrossEntropy: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		a, t := yPred[i], yTrue[i]
		sum += -t*math.Log(Epsilon+a) - (1-t)*math.Log(Epsilon+1-a)
	}
	return sum / float64(n)
}

// Backward returns the output-layer error signal yPred - yTrue.
//
// This is the exact gradient with respect to the input sums only for a
// sigmoid output layer, where the sigmoid derivative cancels against the
// cross-entropy derivative. The same signal is used for every activation.
func (c CrossEntropy) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	c.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace stores the error signal of Backward in grad.
func (CrossEntropy) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("CrossEntropy: slices must have same length")
	}
	for i := 0; i < n; i++ {
		grad[i] = yPred[i] - yTrue[i]
	}
}

// Error is Forward with argument checking instead of panics.
func Error(actual, expected []float64) (float64, error) {
	if actual == nil || expected == nil {
		return 0, fmt.Errorf("loss operands: %w", weights.ErrNilArgument)
	}
	if len(actual) != len(expected) {
		return 0, fmt.Errorf("got %d outputs, %d targets: %w", len(actual), len(expected), weights.ErrInvalidArgument)
	}
	if len(actual) == 0 {
		return 0, fmt.Errorf("empty output: %w", weights.ErrInvalidArgument)
	}
	return CrossEntropy{}.Forward(actual, expected), nil
}
