package network

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer supplies the initial value of every weight and bias.
type Initializer interface {
	Weight(layer, from, to int) float64
	Bias(layer, neuron int) float64
}

type constInit struct {
	weight, bias float64
}

// Const initializes every weight to weight and every bias to bias.
func Const(weight, bias float64) Initializer {
	return constInit{weight: weight, bias: bias}
}

func (c constInit) Weight(int, int, int) float64 { return c.weight }
func (c constInit) Bias(int, int) float64        { return c.bias }

type uniformInit struct {
	dist distuv.Uniform
}

// RandomRange draws every weight and bias uniformly from [min, max).
// A nil src uses the global source.
func RandomRange(min, max float64, src rand.Source) (Initializer, error) {
	if !(min < max) {
		return nil, fmt.Errorf("range [%v, %v) is empty: %w", min, max, ErrInvalidArgument)
	}
	return &uniformInit{dist: distuv.Uniform{Min: min, Max: max, Src: src}}, nil
}

// StdRandomRange draws from [0, 1).
func StdRandomRange(src rand.Source) Initializer {
	return &uniformInit{dist: distuv.Uniform{Min: 0, Max: 1, Src: src}}
}

func (u *uniformInit) Weight(int, int, int) float64 { return u.dist.Rand() }
func (u *uniformInit) Bias(int, int) float64        { return u.dist.Rand() }

type funcInit struct {
	weight func(layer, from, to int) float64
	bias   func(layer, neuron int) float64
}

// Func delegates to caller supplied functions.
func Func(weight func(layer, from, to int) float64, bias func(layer, neuron int) float64) (Initializer, error) {
	if weight == nil {
		return nil, fmt.Errorf("weight supplier: %w", ErrNilArgument)
	}
	if bias == nil {
		return nil, fmt.Errorf("bias supplier: %w", ErrNilArgument)
	}
	return funcInit{weight: weight, bias: bias}, nil
}

func (f funcInit) Weight(layer, from, to int) float64 { return f.weight(layer, from, to) }
func (f funcInit) Bias(layer, neuron int) float64     { return f.bias(layer, neuron) }
