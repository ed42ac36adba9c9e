// Package eval runs the forward pass of a network and back-propagates the
// cross-entropy error signal to a gradient over all weights and biases.
//
// The functions take the network for its shape and activation and a separate
// parameter vector, so the optimizer can evaluate trial points without
// touching the network itself.
package eval

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/scgneuron/internal/loss"
	"github.com/FlavioCFOliveira/scgneuron/internal/network"
	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// Response holds the input sums and outputs of every layer for one sample.
// Layer 0 is the first hidden layer, NumLayers()-1 the output layer.
type Response struct {
	inputSums [][]float64
	outputs   [][]float64
}

func (r *Response) NumLayers() int { return len(r.outputs) }

func (r *Response) check(l, j int) error {
	if l < 0 || l >= len(r.outputs) {
		return fmt.Errorf("layer %d not in [0, %d): %w", l, len(r.outputs), weights.ErrIndexRange)
	}
	if j < 0 || j >= len(r.outputs[l]) {
		return fmt.Errorf("neuron %d of layer %d not in [0, %d): %w", j, l, len(r.outputs[l]), weights.ErrIndexRange)
	}
	return nil
}

// InputSum returns the weighted input plus bias of neuron j in layer l.
func (r *Response) InputSum(l, j int) (float64, error) {
	if err := r.check(l, j); err != nil {
		return 0, err
	}
	return r.inputSums[l][j], nil
}

// Output returns the activation of neuron j in layer l.
func (r *Response) Output(l, j int) (float64, error) {
	if err := r.check(l, j); err != nil {
		return 0, err
	}
	return r.outputs[l][j], nil
}

// Outputs returns a copy of the output layer activations.
func (r *Response) Outputs() []float64 {
	return append([]float64(nil), r.outputs[len(r.outputs)-1]...)
}

func checkParams(n *network.Network, p *weights.Weights) error {
	if n == nil {
		return fmt.Errorf("network: %w", weights.ErrNilArgument)
	}
	if p == nil {
		return fmt.Errorf("weights: %w", weights.ErrNilArgument)
	}
	if !n.Fits(p) {
		return fmt.Errorf("weights %s do not fit network %s: %w", p.Shape().Signature(), n, weights.ErrInvalidArgument)
	}
	return nil
}

// Forward evaluates the network with parameters p on one input sample.
func Forward(n *network.Network, p *weights.Weights, input []float64) (*Response, error) {
	if err := checkParams(n, p); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fmt.Errorf("input: %w", weights.ErrNilArgument)
	}
	if len(input) != n.NumInputs() {
		return nil, fmt.Errorf("got %d inputs, network %s needs %d: %w", len(input), n, n.NumInputs(), weights.ErrInvalidArgument)
	}
	return forward(n, p, input), nil
}

func forward(n *network.Network, p *weights.Weights, input []float64) *Response {
	act := n.Activation()
	layers := n.NumHiddenLayers() + 1
	resp := &Response{
		inputSums: make([][]float64, layers),
		outputs:   make([][]float64, layers),
	}

	prev := mat.NewVecDense(len(input), input)
	for l := 0; l < layers; l++ {
		table := p.LayerWeights(l)
		rows, _ := table.Dims()

		sums := make([]float64, rows)
		z := mat.NewVecDense(rows, sums)
		z.MulVec(table, prev)
		floats.Add(sums, p.LayerBiases(l))

		out := make([]float64, rows)
		for j, s := range sums {
			out[j] = act.Activate(s)
		}
		resp.inputSums[l] = sums
		resp.outputs[l] = out
		prev = mat.NewVecDense(rows, out)
	}
	return resp
}

// Backward returns the gradient of the sample error with respect to every
// weight and bias of p, given the Response that Forward produced for input.
//
// The output layer error signal is output - target for any activation; see
// loss.CrossEntropy.Backward.
func Backward(n *network.Network, p *weights.Weights, input, targets []float64, resp *Response) (*weights.Weights, error) {
	if err := checkParams(n, p); err != nil {
		return nil, err
	}
	if input == nil || targets == nil || resp == nil {
		return nil, fmt.Errorf("backward operands: %w", weights.ErrNilArgument)
	}
	if len(input) != n.NumInputs() || len(targets) != n.NumOutputs() || resp.NumLayers() != n.NumHiddenLayers()+1 {
		return nil, fmt.Errorf("sample does not fit network %s: %w", n, weights.ErrInvalidArgument)
	}

	grad, err := weights.New(p.Shape())
	if err != nil {
		return nil, err
	}
	backward(n, p, input, targets, resp, grad)
	return grad, nil
}

func backward(n *network.Network, p *weights.Weights, input, targets []float64, resp *Response, grad *weights.Weights) {
	act := n.Activation()
	last := resp.NumLayers() - 1

	delta := loss.CrossEntropy{}.Backward(resp.outputs[last], targets)
	for l := last; l >= 0; l-- {
		prevOut := input
		if l > 0 {
			prevOut = resp.outputs[l-1]
		}
		d := mat.NewVecDense(len(delta), delta)
		grad.LayerWeights(l).Outer(1, d, mat.NewVecDense(len(prevOut), prevOut))
		copy(grad.LayerBiases(l), delta)

		if l == 0 {
			break
		}
		// delta_{l-1} = f'(z_{l-1}) * W_l^T delta_l
		next := make([]float64, len(prevOut))
		back := mat.NewVecDense(len(next), next)
		back.MulVec(p.LayerWeights(l).T(), d)
		for j, z := range resp.inputSums[l-1] {
			next[j] *= act.Derivative(z)
		}
		delta = next
	}
}

// Output evaluates the network with its own parameters and returns the
// output layer activations.
func Output(n *network.Network, input []float64) ([]float64, error) {
	if n == nil {
		return nil, fmt.Errorf("network: %w", weights.ErrNilArgument)
	}
	resp, err := Forward(n, n.Params(), input)
	if err != nil {
		return nil, err
	}
	return resp.Outputs(), nil
}

// Performance returns the cross-entropy error of the network on one sample.
func Performance(n *network.Network, input, target []float64) (float64, error) {
	out, err := Output(n, input)
	if err != nil {
		return 0, err
	}
	return loss.Error(out, target)
}

// MeanPerformance averages Performance over a set of samples.
func MeanPerformance(n *network.Network, inputs, targets [][]float64) (float64, error) {
	if n == nil {
		return 0, fmt.Errorf("network: %w", weights.ErrNilArgument)
	}
	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("got %d inputs, %d targets: %w", len(inputs), len(targets), weights.ErrInvalidArgument)
	}
	if len(inputs) == 0 {
		return 0, fmt.Errorf("no samples: %w", weights.ErrInvalidArgument)
	}
	p := n.Params()
	errs := make([]float64, len(inputs))
	for i := range inputs {
		resp, err := Forward(n, p, inputs[i])
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if errs[i], err = loss.Error(resp.outputs[len(resp.outputs)-1], targets[i]); err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return stat.Mean(errs, nil), nil
}
