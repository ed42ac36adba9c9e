// Package weights provides the flat parameter vector of a layered feed-forward
// network and the vector algebra the optimizer runs on it.
package weights

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNilArgument is returned when a required argument is nil.
	ErrNilArgument = errors.New("nil argument")
	// ErrInvalidArgument is returned for sizes, lengths or shapes that do not fit.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIndexRange is returned when a layer or neuron index is out of range.
	ErrIndexRange = errors.New("index out of range")
)

// Shape describes the layer sizes of a network.
type Shape struct {
	Inputs  int
	Hidden  []int
	Outputs int
}

// NewShape builds a validated Shape. The hidden sizes are copied.
func NewShape(inputs int, hidden []int, outputs int) (Shape, error) {
	s := Shape{Inputs: inputs, Hidden: append([]int(nil), hidden...), Outputs: outputs}
	if hidden == nil {
		return Shape{}, fmt.Errorf("hidden layer sizes: %w", ErrNilArgument)
	}
	if err := s.Validate(); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// Validate checks that every layer has at least one neuron.
func (s Shape) Validate() error {
	if s.Hidden == nil {
		return fmt.Errorf("hidden layer sizes: %w", ErrNilArgument)
	}
	if len(s.Hidden) == 0 {
		return fmt.Errorf("at least one hidden layer is required: %w", ErrInvalidArgument)
	}
	if s.Inputs <= 0 {
		return fmt.Errorf("number of inputs %d: %w", s.Inputs, ErrInvalidArgument)
	}
	if s.Outputs <= 0 {
		return fmt.Errorf("number of outputs %d: %w", s.Outputs, ErrInvalidArgument)
	}
	for i, h := range s.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer %d size %d: %w", i, h, ErrInvalidArgument)
		}
	}
	return nil
}

// Layers returns the number of weight layers (hidden layers plus the output layer).
func (s Shape) Layers() int {
	return len(s.Hidden) + 1
}

// LayerSize returns the neuron count of layer l. Layer -1 is the input layer,
// layer Layers()-1 the output layer.
func (s Shape) LayerSize(l int) int {
	switch {
	case l == -1:
		return s.Inputs
	case l == len(s.Hidden):
		return s.Outputs
	case l >= 0 && l < len(s.Hidden):
		return s.Hidden[l]
	}
	return 0
}

// NumParams returns the total number of weights and biases.
func (s Shape) NumParams() int {
	n := 0
	for l := 0; l < s.Layers(); l++ {
		n += s.LayerSize(l) * (s.LayerSize(l-1) + 1)
	}
	return n
}

// Equal reports whether both shapes have the same layer sizes.
func (s Shape) Equal(o Shape) bool {
	if s.Inputs != o.Inputs || s.Outputs != o.Outputs || len(s.Hidden) != len(o.Hidden) {
		return false
	}
	for i := range s.Hidden {
		if s.Hidden[i] != o.Hidden[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share the hidden sizes slice.
func (s Shape) Clone() Shape {
	s.Hidden = append([]int(nil), s.Hidden...)
	return s
}

// Signature formats the layer sizes as "(inputs, h1, ..., hn, outputs)".
func (s Shape) Signature() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(s.Inputs))
	for _, h := range s.Hidden {
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(h))
	}
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(s.Outputs))
	b.WriteByte(')')
	return b.String()
}
