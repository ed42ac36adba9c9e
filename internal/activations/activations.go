// Package activations provides the element-wise activation functions a network
// shares across all of its layers.
package activations

import (
	"fmt"
	"math"
	"sort"
)

// Activation is a stateless activation function with derivative.
// Implementations must be safe for concurrent use.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) at the input sum x
	Derivative(x float64) float64

	// Name identifies the function when a network is persisted.
	Name() string
}

// Sigmoid activation function, the default of every network.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (Sigmoid) Derivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

func (Sigmoid) Name() string { return "sigmoid" }

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (Tanh) Derivative(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

func (Tanh) Name() string { return "tanh" }

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (ReLU) Name() string { return "relu" }

// Linear is the identity function.
type Linear struct{}

func (Linear) Activate(x float64) float64   { return x }
func (Linear) Derivative(x float64) float64 { return 1 }
func (Linear) Name() string                 { return "linear" }

var registry = map[string]Activation{
	Sigmoid{}.Name(): Sigmoid{},
	Tanh{}.Name():    Tanh{},
	ReLU{}.Name():    ReLU{},
	Linear{}.Name():  Linear{},
}

// ByName returns the activation registered under name.
func ByName(name string) (Activation, error) {
	a, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown activation %q", name)
	}
	return a, nil
}

// Names lists the registered activation names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
