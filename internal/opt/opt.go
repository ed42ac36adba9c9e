// Package opt provides the Scaled Conjugate Gradient optimizer.
package opt

import (
	"context"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// Objective is the function being minimized over a parameter vector.
type Objective interface {
	// Gradient returns the gradient at w and the performance at w.
	Gradient(w *weights.Weights) (*weights.Weights, float64, error)

	// Performance returns the value at w.
	Performance(w *weights.Weights) (float64, error)
}

// EpochFunc is called after every completed epoch with the 1-based epoch
// number, the performance at the committed parameters and those parameters.
// The optimizer never modifies w after passing it, and neither may the callee.
type EpochFunc func(epoch int, performance float64, w *weights.Weights)

// Optimizer minimizes an Objective starting from w0. w0 is never modified.
type Optimizer interface {
	Minimize(ctx context.Context, obj Objective, w0 *weights.Weights, onEpoch EpochFunc) (Result, error)
}

// Reason tells why an optimizer run stopped.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMaxEpoch
	ReasonMinGradient
	ReasonPerformanceGoal
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonMaxEpoch:
		return "max-epoch"
	case ReasonMinGradient:
		return "min-gradient"
	case ReasonPerformanceGoal:
		return "performance-goal"
	case ReasonCanceled:
		return "canceled"
	}
	return "none"
}

// Result is the outcome of a run. Weights always holds the last committed
// parameters, also when the run was canceled or failed.
type Result struct {
	Weights     *weights.Weights
	Epochs      int
	Performance float64
	Reason      Reason
}

// Canceled reports whether the run stopped on context cancellation.
func (r Result) Canceled() bool {
	return r.Reason == ReasonCanceled
}
