package weights

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Weights holds every weight and bias of a network in one contiguous slice.
//
// Layer l stores its weight table row-major, one row per neuron of layer l and
// one column per neuron of layer l-1, followed by its bias vector. The per-layer
// matrices are views over the same backing slice, so vector algebra on the flat
// data and matrix products on the views see the same values.
type Weights struct {
	shape   Shape
	data    []float64
	tables  []*mat.Dense
	biases  [][]float64
	offsets []int
}

// New returns a zero-valued parameter vector for the given shape.
func New(shape Shape) (*Weights, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return newWeights(shape.Clone(), make([]float64, shape.NumParams())), nil
}

// FromSlice wraps a copy of data as a parameter vector for the given shape.
func FromSlice(shape Shape, data []float64) (*Weights, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumParams() {
		return nil, fmt.Errorf("got %d parameters, shape %s needs %d: %w",
			len(data), shape.Signature(), shape.NumParams(), ErrInvalidArgument)
	}
	return newWeights(shape.Clone(), append([]float64(nil), data...)), nil
}

func newWeights(shape Shape, data []float64) *Weights {
	layers := shape.Layers()
	w := &Weights{
		shape:   shape,
		data:    data,
		tables:  make([]*mat.Dense, layers),
		biases:  make([][]float64, layers),
		offsets: make([]int, layers),
	}
	off := 0
	for l := 0; l < layers; l++ {
		rows, cols := shape.LayerSize(l), shape.LayerSize(l-1)
		w.offsets[l] = off
		w.tables[l] = mat.NewDense(rows, cols, data[off:off+rows*cols])
		off += rows * cols
		w.biases[l] = data[off : off+rows : off+rows]
		off += rows
	}
	return w
}

// Shape returns the layer sizes the vector was built for.
func (w *Weights) Shape() Shape {
	return w.shape.Clone()
}

// Len returns the number of parameters.
func (w *Weights) Len() int {
	return len(w.data)
}

// Data exposes the backing slice. Writes are visible through every view.
func (w *Weights) Data() []float64 {
	return w.data
}

// LayerWeights returns the weight table of layer l, rows indexed by the
// to-neuron and columns by the from-neuron.
func (w *Weights) LayerWeights(l int) *mat.Dense {
	return w.tables[l]
}

// LayerBiases returns the bias vector of layer l.
func (w *Weights) LayerBiases(l int) []float64 {
	return w.biases[l]
}

func (w *Weights) checkNeuron(l, n int) error {
	if l < 0 || l >= w.shape.Layers() {
		return fmt.Errorf("layer %d not in [0, %d): %w", l, w.shape.Layers(), ErrIndexRange)
	}
	if n < 0 || n >= w.shape.LayerSize(l) {
		return fmt.Errorf("neuron %d of layer %d not in [0, %d): %w", n, l, w.shape.LayerSize(l), ErrIndexRange)
	}
	return nil
}

func (w *Weights) checkWeight(l, from, to int) error {
	if err := w.checkNeuron(l, to); err != nil {
		return err
	}
	if from < 0 || from >= w.shape.LayerSize(l-1) {
		return fmt.Errorf("source neuron %d of layer %d not in [0, %d): %w", from, l, w.shape.LayerSize(l-1), ErrIndexRange)
	}
	return nil
}

// Weight returns the weight of the connection from neuron `from` of layer l-1
// to neuron `to` of layer l.
func (w *Weights) Weight(l, from, to int) (float64, error) {
	if err := w.checkWeight(l, from, to); err != nil {
		return 0, err
	}
	return w.tables[l].At(to, from), nil
}

// SetWeight sets a single connection weight.
func (w *Weights) SetWeight(l, from, to int, v float64) error {
	if err := w.checkWeight(l, from, to); err != nil {
		return err
	}
	w.tables[l].Set(to, from, v)
	return nil
}

// Bias returns the bias of neuron n in layer l.
func (w *Weights) Bias(l, n int) (float64, error) {
	if err := w.checkNeuron(l, n); err != nil {
		return 0, err
	}
	return w.biases[l][n], nil
}

// SetBias sets the bias of neuron n in layer l.
func (w *Weights) SetBias(l, n int, v float64) error {
	if err := w.checkNeuron(l, n); err != nil {
		return err
	}
	w.biases[l][n] = v
	return nil
}

// SetAllWeights assigns v to every connection weight, leaving biases alone.
func (w *Weights) SetAllWeights(v float64) {
	for l := range w.tables {
		off := w.offsets[l]
		for i := off; i < off+len(w.tables[l].RawMatrix().Data); i++ {
			w.data[i] = v
		}
	}
}

// SetAllBiases assigns v to every bias.
func (w *Weights) SetAllBiases(v float64) {
	for _, b := range w.biases {
		for i := range b {
			b[i] = v
		}
	}
}

// SetAll assigns v to every parameter.
func (w *Weights) SetAll(v float64) {
	for i := range w.data {
		w.data[i] = v
	}
}

// Clone returns a deep copy.
func (w *Weights) Clone() *Weights {
	return newWeights(w.shape.Clone(), append([]float64(nil), w.data...))
}

// CopyFrom overwrites the receiver with the values of o.
func (w *Weights) CopyFrom(o *Weights) error {
	if err := w.compatible(o); err != nil {
		return err
	}
	copy(w.data, o.data)
	return nil
}

// Compatible reports whether o has the same shape as w.
func (w *Weights) Compatible(o *Weights) bool {
	return o != nil && w.shape.Equal(o.shape)
}

func (w *Weights) compatible(o *Weights) error {
	if o == nil {
		return fmt.Errorf("operand: %w", ErrNilArgument)
	}
	if !w.shape.Equal(o.shape) {
		return fmt.Errorf("shape %s does not match %s: %w", o.shape.Signature(), w.shape.Signature(), ErrInvalidArgument)
	}
	return nil
}

// Add adds o element-wise into w and returns w.
func (w *Weights) Add(o *Weights) (*Weights, error) {
	if err := w.compatible(o); err != nil {
		return nil, err
	}
	floats.Add(w.data, o.data)
	return w, nil
}

// Subtract subtracts o element-wise from w and returns w.
func (w *Weights) Subtract(o *Weights) (*Weights, error) {
	if err := w.compatible(o); err != nil {
		return nil, err
	}
	floats.Sub(w.data, o.data)
	return w, nil
}

// AddScaled adds alpha*o into w and returns w.
func (w *Weights) AddScaled(alpha float64, o *Weights) (*Weights, error) {
	if err := w.compatible(o); err != nil {
		return nil, err
	}
	floats.AddScaled(w.data, alpha, o.data)
	return w, nil
}

// Multiply scales every parameter by f and returns w.
func (w *Weights) Multiply(f float64) *Weights {
	floats.Scale(f, w.data)
	return w
}

// Dot returns the inner product of w and o.
func (w *Weights) Dot(o *Weights) (float64, error) {
	if err := w.compatible(o); err != nil {
		return 0, err
	}
	return floats.Dot(w.data, o.data), nil
}

// SquaredNorm returns w·w.
func (w *Weights) SquaredNorm() float64 {
	return floats.Dot(w.data, w.data)
}

// Norm returns the Euclidean norm of w.
func (w *Weights) Norm() float64 {
	return math.Sqrt(w.SquaredNorm())
}

// Equal reports whether o has the same shape and exactly the same values.
func (w *Weights) Equal(o *Weights) bool {
	return w.Compatible(o) && floats.Equal(w.data, o.data)
}

// EqualApprox is Equal with an absolute tolerance.
func (w *Weights) EqualApprox(o *Weights, tol float64) bool {
	return w.Compatible(o) && floats.EqualApprox(w.data, o.data, tol)
}
