package network

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/scgneuron/internal/activations"
	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// header is the gob record written ahead of the parameter slice.
type header struct {
	Inputs     int
	Hidden     []int
	Outputs    int
	Activation string
	Name       string
}

// Save writes the network to a file using gob encoding.
func (n *Network) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := n.Encode(file); err != nil {
		return err
	}
	return file.Sync()
}

// Load reads a network written by Save.
func Load(filename string) (*Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Encode writes the network to w using gob encoding.
func (n *Network) Encode(w io.Writer) error {
	encoder := gob.NewEncoder(w)

	h := header{
		Inputs:     n.shape.Inputs,
		Hidden:     n.shape.Hidden,
		Outputs:    n.shape.Outputs,
		Activation: n.act.Name(),
		Name:       n.name,
	}
	if err := encoder.Encode(h); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := encoder.Encode(n.params.Data()); err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	return nil
}

// Decode reads a network written by Encode.
func Decode(r io.Reader) (*Network, error) {
	decoder := gob.NewDecoder(r)

	var h header
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	act, err := activations.ByName(h.Activation)
	if err != nil {
		return nil, fmt.Errorf("failed to restore activation: %w", err)
	}

	var params []float64
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("failed to read parameters: %w", err)
	}

	shape, err := weights.NewShape(h.Inputs, h.Hidden, h.Outputs)
	if err != nil {
		return nil, fmt.Errorf("invalid stored shape: %w", err)
	}
	p, err := weights.FromSlice(shape, params)
	if err != nil {
		return nil, fmt.Errorf("invalid stored parameters: %w", err)
	}
	return &Network{shape: shape, params: p, act: act, name: h.Name}, nil
}
