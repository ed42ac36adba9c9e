// Package samples provides min-max normalization of training samples, random
// train/validation/test splits and CSV dataset loading.
package samples

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// ErrNotFitted is returned when a single sample is normalized before the
// normalizer has bounds.
var ErrNotFitted = errors.New("normalizer has no bounds")

// Normalizer maps sample values into a fixed range in place.
type Normalizer interface {
	// NormalizeAll normalizes every sample. A normalizer without bounds
	// learns them from these samples first.
	NormalizeAll(samples [][]float64) error

	// Normalize normalizes one sample with the current bounds.
	Normalize(sample []float64) error
}

// MinMax maps every variable from [min, max] onto [Low, High]. Variables whose
// min equals max are left untouched.
type MinMax struct {
	Low, High float64
	min, max  []float64
}

// NewMinMax returns a normalizer onto [0, 1] that learns its bounds from the
// first NormalizeAll call.
func NewMinMax() *MinMax {
	return &MinMax{Low: 0, High: 1}
}

// NewSymmetric returns a normalizer onto [-1, 1] that learns its bounds from
// the first NormalizeAll call.
func NewSymmetric() *MinMax {
	return &MinMax{Low: -1, High: 1}
}

// WithBounds sets fixed per-variable bounds.
func (m *MinMax) WithBounds(min, max []float64) (*MinMax, error) {
	if min == nil || max == nil {
		return nil, fmt.Errorf("bounds: %w", weights.ErrNilArgument)
	}
	if len(min) == 0 || len(min) != len(max) {
		return nil, fmt.Errorf("got %d minimums and %d maximums: %w", len(min), len(max), weights.ErrInvalidArgument)
	}
	for i := range min {
		if min[i] > max[i] {
			return nil, fmt.Errorf("variable %d: min %v > max %v: %w", i, min[i], max[i], weights.ErrInvalidArgument)
		}
	}
	m.min = append([]float64(nil), min...)
	m.max = append([]float64(nil), max...)
	return m, nil
}

// Bounds returns copies of the per-variable bounds, nil before fitting.
func (m *MinMax) Bounds() (min, max []float64) {
	if m.min == nil {
		return nil, nil
	}
	return append([]float64(nil), m.min...), append([]float64(nil), m.max...)
}

func (m *MinMax) fit(samples [][]float64) {
	vars := len(samples[0])
	m.min = make([]float64, vars)
	m.max = make([]float64, vars)
	column := make([]float64, len(samples))
	for v := 0; v < vars; v++ {
		for i, s := range samples {
			column[i] = s[v]
		}
		m.min[v] = floats.Min(column)
		m.max[v] = floats.Max(column)
	}
}

func (m *MinMax) NormalizeAll(samples [][]float64) error {
	if samples == nil {
		return fmt.Errorf("samples: %w", weights.ErrNilArgument)
	}
	if len(samples) == 0 || len(samples[0]) == 0 {
		return fmt.Errorf("no samples: %w", weights.ErrInvalidArgument)
	}
	vars := len(samples[0])
	if m.min != nil {
		vars = len(m.min)
	}
	for i, s := range samples {
		if s == nil {
			return fmt.Errorf("sample %d: %w", i, weights.ErrNilArgument)
		}
		if len(s) != vars {
			return fmt.Errorf("sample %d has %d values, want %d: %w", i, len(s), vars, weights.ErrInvalidArgument)
		}
	}

	if m.min == nil {
		m.fit(samples)
	}
	for _, s := range samples {
		m.apply(s)
	}
	return nil
}

func (m *MinMax) Normalize(sample []float64) error {
	if sample == nil {
		return fmt.Errorf("sample: %w", weights.ErrNilArgument)
	}
	if m.min == nil {
		return ErrNotFitted
	}
	if len(sample) != len(m.min) {
		return fmt.Errorf("sample has %d values, want %d: %w", len(sample), len(m.min), weights.ErrInvalidArgument)
	}
	m.apply(sample)
	return nil
}

func (m *MinMax) apply(s []float64) {
	span := m.High - m.Low
	for v := range s {
		if m.max[v] == m.min[v] {
			continue
		}
		s[v] = m.Low + span*(s[v]-m.min[v])/(m.max[v]-m.min[v])
	}
}
