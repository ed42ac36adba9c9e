// Package network provides the layered feed-forward network model: its shape,
// its weights and biases, and the activation shared by every layer.
package network

import (
	"fmt"
	"sync"

	"github.com/FlavioCFOliveira/scgneuron/internal/activations"
	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

var (
	ErrNilArgument     = weights.ErrNilArgument
	ErrInvalidArgument = weights.ErrInvalidArgument
	ErrIndexRange      = weights.ErrIndexRange
)

// Network is a fully connected feed-forward network with at least one hidden
// layer. The shape never changes after construction.
//
// A Network is not safe for concurrent mutation. The trainer only ever hands
// out copies.
type Network struct {
	shape  weights.Shape
	params *weights.Weights
	act    activations.Activation
	name   string

	sigOnce sync.Once
	sig     string
}

// New creates a network with numInputs inputs, one hidden layer per entry of
// hidden and numOutputs outputs. init is called once for every weight and
// bias. The activation defaults to Sigmoid.
func New(numInputs int, hidden []int, numOutputs int, init Initializer) (*Network, error) {
	if init == nil {
		return nil, fmt.Errorf("initializer: %w", ErrNilArgument)
	}
	shape, err := weights.NewShape(numInputs, hidden, numOutputs)
	if err != nil {
		return nil, err
	}
	params, err := weights.New(shape)
	if err != nil {
		return nil, err
	}

	for l := 0; l < shape.Layers(); l++ {
		table := params.LayerWeights(l)
		bias := params.LayerBiases(l)
		for to := 0; to < shape.LayerSize(l); to++ {
			for from := 0; from < shape.LayerSize(l-1); from++ {
				table.Set(to, from, init.Weight(l, from, to))
			}
			bias[to] = init.Bias(l, to)
		}
	}

	return &Network{shape: shape, params: params, act: activations.Sigmoid{}}, nil
}

// FromWeights builds a network around a copy of p.
func FromWeights(p *weights.Weights, act activations.Activation) (*Network, error) {
	if p == nil {
		return nil, fmt.Errorf("weights: %w", ErrNilArgument)
	}
	if act == nil {
		return nil, fmt.Errorf("activation: %w", ErrNilArgument)
	}
	return &Network{shape: p.Shape(), params: p.Clone(), act: act}, nil
}

// NumInputs returns the size of the input layer.
func (n *Network) NumInputs() int { return n.shape.Inputs }

// NumOutputs returns the size of the output layer.
func (n *Network) NumOutputs() int { return n.shape.Outputs }

func (n *Network) NumHiddenLayers() int { return len(n.shape.Hidden) }

// HiddenLayerSize returns the neuron count of hidden layer i.
func (n *Network) HiddenLayerSize(i int) (int, error) {
	if i < 0 || i >= len(n.shape.Hidden) {
		return 0, fmt.Errorf("hidden layer %d not in [0, %d): %w", i, len(n.shape.Hidden), ErrIndexRange)
	}
	return n.shape.Hidden[i], nil
}

// HiddenLayerSizes returns a copy of the hidden layer sizes.
func (n *Network) HiddenLayerSizes() []int {
	return append([]int(nil), n.shape.Hidden...)
}

// Shape returns a copy of the network shape.
func (n *Network) Shape() weights.Shape {
	return n.shape.Clone()
}

// Weight returns the weight from neuron `from` of layer-1 to neuron `to` of
// layer. Layer 0 is the first hidden layer, NumHiddenLayers() the output layer.
func (n *Network) Weight(layer, from, to int) (float64, error) {
	return n.params.Weight(layer, from, to)
}

// SetWeight sets the weight addressed as in Weight.
func (n *Network) SetWeight(layer, from, to int, v float64) error {
	return n.params.SetWeight(layer, from, to, v)
}

// Bias returns the bias of neuron in layer, indexed as in Weight.
func (n *Network) Bias(layer, neuron int) (float64, error) {
	return n.params.Bias(layer, neuron)
}

// SetBias sets the bias of neuron in layer.
func (n *Network) SetBias(layer, neuron int, v float64) error {
	return n.params.SetBias(layer, neuron, v)
}

// SetWeights assigns v to every connection weight.
func (n *Network) SetWeights(v float64) {
	n.params.SetAllWeights(v)
}

// SetBiases assigns v to every bias.
func (n *Network) SetBiases(v float64) {
	n.params.SetAllBiases(v)
}

// Activation returns the activation shared by all layers.
func (n *Network) Activation() activations.Activation {
	return n.act
}

// SetActivation replaces the activation of every layer.
func (n *Network) SetActivation(a activations.Activation) error {
	if a == nil {
		return fmt.Errorf("activation: %w", ErrNilArgument)
	}
	n.act = a
	return nil
}

// Name returns the network name, empty for an unnamed network.
func (n *Network) Name() string { return n.name }

// SetName names the network. The name is kept by Copy and Save and prefixes
// String.
func (n *Network) SetName(name string) { n.name = name }

// Params returns a detached copy of all weights and biases.
func (n *Network) Params() *weights.Weights {
	return n.params.Clone()
}

// Fits reports whether p has the shape of the network.
func (n *Network) Fits(p *weights.Weights) bool {
	return n.params.Compatible(p)
}

// SetParams overwrites all weights and biases with the values of p.
func (n *Network) SetParams(p *weights.Weights) error {
	return n.params.CopyFrom(p)
}

// Copy returns a deep copy. The activation is shared since it is stateless.
func (n *Network) Copy() *Network {
	return &Network{shape: n.shape.Clone(), params: n.params.Clone(), act: n.act, name: n.name}
}

// Equal reports whether o has the same name, shape, activation and parameter
// values.
func (n *Network) Equal(o *Network) bool {
	if o == nil {
		return false
	}
	return n.name == o.name && n.act.Name() == o.act.Name() && n.params.Equal(o.params)
}

// String returns the layer signature, e.g. "(3, 2, 3, 1)", prefixed by the
// name when set: "xor (2, 3, 1)".
func (n *Network) String() string {
	n.sigOnce.Do(func() {
		n.sig = n.shape.Signature()
	})
	if n.name != "" {
		return n.name + " " + n.sig
	}
	return n.sig
}
